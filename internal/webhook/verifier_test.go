package webhook

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestVerifyAcceptsValidSignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"eventType":"PAYMENT_CAPTURED"}`)
	v := Verifier{Secret: "whsec_test", Logger: zerolog.Nop()}

	require.True(t, v.Verify(body, ComputeSignature("whsec_test", body)))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	t.Parallel()

	body := []byte(`{"eventType":"PAYMENT_CAPTURED","data":{"payment":{"amount":1000}}}`)
	v := Verifier{Secret: "whsec_test", Logger: zerolog.Nop()}
	sig := ComputeSignature("whsec_test", body)

	tampered := make([]byte, len(body))
	copy(tampered, body)
	tampered[len(tampered)-3] ^= 0x01

	require.False(t, v.Verify(tampered, sig))
}

func TestVerifyRejectsFlippedSignatureBit(t *testing.T) {
	t.Parallel()

	body := []byte(`{"eventType":"PAYMENT_FAILED"}`)
	v := Verifier{Secret: "whsec_test", Logger: zerolog.Nop()}
	sig := []byte(ComputeSignature("whsec_test", body))
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}

	require.False(t, v.Verify(body, string(sig)))
}

func TestVerifyRejectsMissingOrMalformedSignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{}`)
	v := Verifier{Secret: "whsec_test", Logger: zerolog.Nop()}

	require.False(t, v.Verify(body, ""))
	require.False(t, v.Verify(body, "   "))
	require.False(t, v.Verify(body, "not-hex-at-all"))
	require.False(t, v.Verify(body, "deadbeef"))
}

func TestVerifyFailsOpenWithoutSecret(t *testing.T) {
	t.Parallel()

	body := []byte(`{"eventType":"PAYMENT_CREATED"}`)
	v := Verifier{Secret: "", Logger: zerolog.Nop()}

	require.True(t, v.Verify(body, ""))
	require.True(t, v.Verify(body, "garbage"))
}

func TestVerifyFailsOpenWhenDisabled(t *testing.T) {
	t.Parallel()

	v := Verifier{Secret: "whsec_test", Disabled: true, Logger: zerolog.Nop()}

	require.True(t, v.Verify([]byte(`{}`), "garbage"))
}

func TestVerifySecretWhitespaceTrimmed(t *testing.T) {
	t.Parallel()

	body := []byte(`{"eventType":"PAYMENT_CANCELLED"}`)
	v := Verifier{Secret: "whsec_test", Logger: zerolog.Nop()}
	sig := "  " + ComputeSignature("whsec_test", body) + "\n"

	require.True(t, v.Verify(body, sig))
}
