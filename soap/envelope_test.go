package soap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEnvelopeBodyAction(t *testing.T) {
	env := NewEnvelope("GetBalance")
	action := env.Action()
	require.NotNil(t, action)
	require.Equal(t, "GetBalance", action.Name.Local)

	var buf bytes.Buffer
	require.NoError(t, env.Write(&buf))
	out := buf.String()
	require.Contains(t, out, `xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"`)
	require.Contains(t, out, "<soap:Envelope")
	require.Contains(t, out, "<soap:Body>")
	require.Contains(t, out, "<GetBalance")
}

func TestSetWSSecurityOrdersHeaderBeforeBody(t *testing.T) {
	env := NewEnvelope("Ping")
	env.SetWSSecurity(Credentials{Username: "alice", Password: "s3cret"})

	require.NotNil(t, env.Header())

	var buf bytes.Buffer
	require.NoError(t, env.Write(&buf))
	out := buf.String()

	headerIdx := strings.Index(out, "<soap:Header>")
	bodyIdx := strings.Index(out, "<soap:Body>")
	require.NotEqual(t, -1, headerIdx)
	require.NotEqual(t, -1, bodyIdx)
	require.Less(t, headerIdx, bodyIdx)
	require.Contains(t, out, "<wsse:Username>alice</wsse:Username>")
	require.Contains(t, out, "<wsse:Password Type=")
	require.Contains(t, out, "s3cret")
}

func TestParseEnvelopeAndFault(t *testing.T) {
	raw := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>account not found</faultstring>
    </Fault>
  </soap:Body>
</soap:Envelope>`

	env, err := ParseEnvelope(strings.NewReader(raw))
	require.NoError(t, err)
	require.NotNil(t, env.Body())

	fault := env.FaultFromBody()
	require.NotNil(t, fault)
	require.Equal(t, "soap:Server", fault.Code)
	require.Equal(t, "account not found", fault.String)
	require.Contains(t, fault.Error(), "account not found")
}

func TestParseEnvelopeRejectsNonEnvelope(t *testing.T) {
	_, err := ParseEnvelope(strings.NewReader(`<ping/>`))
	require.Error(t, err)
}
