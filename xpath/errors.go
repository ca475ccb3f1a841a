package xpath

import "github.com/arturoeanton/goxmlkit/xmlerr"

func syntaxError(format string, args ...any) *xmlerr.Error {
	return xmlerr.New(xmlerr.XPathSyntax, format, args...)
}

func typeError(format string, args ...any) *xmlerr.Error {
	return xmlerr.New(xmlerr.XPathType, format, args...)
}

func undefinedVariable(name string) *xmlerr.Error {
	return xmlerr.New(xmlerr.UndefinedVariable, "undefined variable $%s", name)
}
