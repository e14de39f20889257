package logger

import (
	"strings"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

func Method(v string) zap.Field {
	return zap.String("method", v)
}

func Path(v string) zap.Field {
	return zap.String("path", v)
}

func Status(v int) zap.Field {
	return zap.Int("status", v)
}

func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

func ErrorCode(v string) zap.Field {
	return zap.String("error_code", v)
}

func RedirectTo(v string) zap.Field {
	return zap.String("redirect_to", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - DOMINIO
// =================================================================================

// Provider identifica el proveedor externo (google, atproto).
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// DID es el identificador descentralizado; es público, se puede loguear.
func DID(v string) zap.Field {
	return zap.String("did", v)
}

// MemberID es el id opaco del member store.
func MemberID(v string) zap.Field {
	return zap.String("member_id", v)
}

// MaskedEmail loguea el email enmascarado (primeros 2 chars + @dominio).
func MaskedEmail(v string) zap.Field {
	return zap.String("email_masked", MaskEmail(v))
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field {
	return zap.String("component", v)
}

func Op(v string) zap.Field {
	return zap.String("op", v)
}

func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

func Err(err error) zap.Field {
	return zap.Error(err)
}

func String(key, v string) zap.Field {
	return zap.String(key, v)
}

func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// MaskEmail enmascara un email para logs. Los placeholders de atproto
// conservan el dominio reservado para que sigan siendo reconocibles.
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at < 2 {
		return email[:2] + "***"
	}
	return email[:2] + "***" + email[at:]
}
