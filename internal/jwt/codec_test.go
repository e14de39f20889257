package jwt_test

import (
	"strings"
	"testing"
	"time"

	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newCodec(t *testing.T, secret string, c *clock) *jwtx.Codec {
	t.Helper()
	codec, err := jwtx.NewCodec(secret, jwtx.WithClock(c.now))
	require.NoError(t, err)
	return codec
}

func TestNewCodec_RejectsEmptySecret(t *testing.T) {
	_, err := jwtx.NewCodec("   ")
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)
}

func TestAssertion_RoundTripBeforeExpiry(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	codec := newCodec(t, "s3cret", clk)

	in := jwtx.Assertion{Provider: "atproto", DID: "did:plc:abc123", Handle: "alice.example", Name: "Alice"}
	tok, err := codec.SignAssertion(in, 10*time.Minute)
	require.NoError(t, err)

	clk.t = clk.t.Add(9 * time.Minute)
	out, err := codec.VerifyAssertion(tok)
	require.NoError(t, err)
	require.Equal(t, in.Provider, out.Provider)
	require.Equal(t, in.DID, out.DID)
	require.Equal(t, in.Handle, out.Handle)
	require.Equal(t, in.Name, out.Name)
	require.Empty(t, out.Email)
	require.Equal(t, time.Unix(1_700_000_000, 0).Add(10*time.Minute), out.ExpiresAt.Time)
}

func TestAssertion_VerifyReturnsPayloadAsSigned(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	codec := newCodec(t, "s3cret", clk)

	in := jwtx.Assertion{Provider: "ATProto", DID: " did:plc:x", Handle: "Alice.Example ", Name: " Alice "}
	tok, err := codec.SignAssertion(in, time.Minute)
	require.NoError(t, err)

	out, err := codec.VerifyAssertion(tok)
	require.NoError(t, err)
	require.Equal(t, "ATProto", out.Provider)
	require.Equal(t, " did:plc:x", out.DID)
	require.Equal(t, "Alice.Example ", out.Handle)
	require.Equal(t, " Alice ", out.Name)
	require.Equal(t, "Alice", out.DisplayName())
}

func TestAssertion_FailsAfterExpiry(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	codec := newCodec(t, "s3cret", clk)

	tok, err := codec.SignAssertion(jwtx.Assertion{Provider: "google", Email: "a@example.com"}, time.Minute)
	require.NoError(t, err)

	clk.t = clk.t.Add(time.Minute + time.Second)
	_, err = codec.VerifyAssertion(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	clk := &clock{t: time.Now()}
	tok, err := newCodec(t, "one", clk).SignAssertion(jwtx.Assertion{Provider: "google", Email: "a@example.com"}, time.Hour)
	require.NoError(t, err)

	_, err = newCodec(t, "two", clk).VerifyAssertion(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestVerify_RejectsTamperedPayload(t *testing.T) {
	clk := &clock{t: time.Now()}
	codec := newCodec(t, "s3cret", clk)
	tok, err := codec.SignAssertion(jwtx.Assertion{Provider: "google", Email: "a@example.com"}, time.Hour)
	require.NoError(t, err)

	forged, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"provider": "google",
		"email":    "admin@example.com",
		"exp":      clk.t.Add(time.Hour).Unix(),
	}).SignedString([]byte("attacker"))
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	forgedParts := strings.Split(forged, ".")
	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]

	_, err = codec.VerifyAssertion(spliced)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestVerify_RejectsMalformedAndNone(t *testing.T) {
	codec := newCodec(t, "s3cret", &clock{t: time.Now()})

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.VerifyAssertion(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken, "token %q", tok)
	}

	none, err := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, jwtv5.MapClaims{
		"provider": "google",
		"email":    "a@example.com",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.VerifyAssertion(none)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	codec := newCodec(t, "s3cret", &clock{t: time.Now()})
	tok, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"provider": "google",
		"email":    "a@example.com",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = codec.VerifyAssertion(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestSign_RejectsNonPositiveTTL(t *testing.T) {
	codec := newCodec(t, "s3cret", &clock{t: time.Now()})
	_, err := codec.SignAssertion(jwtx.Assertion{Provider: "google"}, 0)
	require.ErrorIs(t, err, jwtx.ErrInvalidTTL)
}

func TestSession_ThirtyDayLifetime(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clk := &clock{t: start}
	codec := newCodec(t, "s3cret", clk)

	tok, exp, err := codec.SignSession(jwtx.SessionClaims{
		MemberID: "m1",
		Email:    "a@example.com",
		Provider: "google",
	})
	require.NoError(t, err)
	require.Equal(t, start.Add(30*24*time.Hour), exp)

	clk.t = start.Add(29 * 24 * time.Hour)
	got, err := codec.VerifySession(tok)
	require.NoError(t, err)
	require.Equal(t, "m1", got.MemberID)
	require.Equal(t, "a@example.com", got.Email)

	clk.t = start.Add(30*24*time.Hour + time.Second)
	_, err = codec.VerifySession(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestAssertion_DisplayName(t *testing.T) {
	require.Equal(t, "Alice", (&jwtx.Assertion{Name: "Alice", Handle: "alice.example"}).DisplayName())
	require.Equal(t, "alice.example", (&jwtx.Assertion{Handle: "alice.example"}).DisplayName())
	require.Equal(t, "", (&jwtx.Assertion{}).DisplayName())
	require.Equal(t, "alice.example", (&jwtx.Assertion{Name: "  ", Handle: " alice.example"}).DisplayName())
	require.False(t, (&jwtx.Assertion{Email: "  "}).HasEmail())
}

func TestVerifySession_RejectsAssertion(t *testing.T) {
	codec := newCodec(t, "s3cret", &clock{t: time.Now()})
	tok, err := codec.SignAssertion(jwtx.Assertion{Provider: "google", Email: "a@example.com"}, time.Hour)
	require.NoError(t, err)

	_, err = codec.VerifySession(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}
