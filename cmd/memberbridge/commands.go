package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/memberbridge/internal/config"
	"github.com/dropDatabas3/memberbridge/internal/identity"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
)

func envOr(getenv func(string) string, k, def string) string {
	if v := getenv(k); v != "" {
		return v
	}
	return def
}

// newRootCmd arma la CLI de desarrollo/operación del bridge de members.
func newRootCmd(getenv func(string) string) *cobra.Command {
	var (
		serviceURL = envOr(getenv, "MEMBERBRIDGE_URL", "http://localhost:8080")
		bridgeURL  = envOr(getenv, "BRIDGE_URL", "http://127.0.0.1:5000")
		secret     = envOr(getenv, "SHARED_JWT_SECRET", "")
		prefix     = envOr(getenv, "ROUTES_PREFIX", "/members/api/oauth")
		out        = envOr(getenv, "MEMBERBRIDGE_OUT", "text")
	)

	root := &cobra.Command{
		Use:           "memberbridge",
		Short:         "CLI para el bridge OAuth de members",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serviceURL, "service-url", serviceURL, "URL base del servicio (env MEMBERBRIDGE_URL)")
	root.PersistentFlags().StringVar(&bridgeURL, "bridge-url", bridgeURL, "URL base del bridge OAuth (env BRIDGE_URL)")
	root.PersistentFlags().StringVar(&secret, "secret", secret, "Secreto compartido (env SHARED_JWT_SECRET)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	codec := func(cmd *cobra.Command) (*jwtx.Codec, error) {
		s := secret
		if s == "" {
			s = config.InsecureDefaultSecret
			fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: --secret no seteado, usando el secreto inseguro por defecto")
		}
		return jwtx.NewCodec(s)
	}

	// token sign: simula al bridge firmando una identidad externa
	var (
		a        jwtx.Assertion
		ttl      time.Duration
		asURL    bool
		tokenCmd = &cobra.Command{Use: "token", Short: "Firmar y verificar tokens del bridge"}
	)
	signCmd := &cobra.Command{
		Use:   "sign",
		Short: "Firmar una assertion como lo haría el bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Provider = identity.NormalizeProvider(a.Provider)
			if a.Provider == "" {
				return fmt.Errorf("--provider es requerido")
			}
			c, err := codec(cmd)
			if err != nil {
				return err
			}
			tok, err := c.SignAssertion(a, ttl)
			if err != nil {
				return err
			}
			if asURL {
				q := url.Values{"token": {tok}, "provider": {a.Provider}}
				tok = strings.TrimRight(serviceURL, "/") + prefix + "/callback?" + q.Encode()
			}
			printOut(cmd.OutOrStdout(), "text", tok)
			return nil
		},
	}
	signCmd.Flags().StringVar(&a.Provider, "provider", "", "google|atproto")
	signCmd.Flags().StringVar(&a.Email, "email", "", "Email verificado (google)")
	signCmd.Flags().StringVar(&a.DID, "did", "", "DID (atproto)")
	signCmd.Flags().StringVar(&a.Handle, "handle", "", "Handle (atproto)")
	signCmd.Flags().StringVar(&a.Name, "name", "", "Nombre visible")
	signCmd.Flags().DurationVar(&ttl, "ttl", 10*time.Minute, "Vida del token")
	signCmd.Flags().BoolVar(&asURL, "callback-url", false, "Imprimir la URL de callback completa en lugar del token")

	verifyCmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verificar una assertion o una sesión",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codec(cmd)
			if err != nil {
				return err
			}
			// Sin memberId VerifySession falla y se trata como assertion.
			if s, err := c.VerifySession(args[0]); err == nil {
				printOut(cmd.OutOrStdout(), "json", s)
				return nil
			}
			as, err := c.VerifyAssertion(args[0])
			if err != nil {
				return err
			}
			printOut(cmd.OutOrStdout(), "json", as)
			return nil
		},
	}
	tokenCmd.AddCommand(signCmd, verifyCmd)

	// auth-url: endpoint de inicio del bridge para un provider
	var provider, handle string
	authURLCmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Mostrar el endpoint del bridge que inicia el login",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := identity.NewResolver(identity.Config{BridgeBaseURL: bridgeURL}, nil).AuthURL(provider, handle)
			if err != nil {
				return err
			}
			printOut(cmd.OutOrStdout(), "text", u)
			return nil
		},
	}
	authURLCmd.Flags().StringVar(&provider, "provider", "", "google|atproto")
	authURLCmd.Flags().StringVar(&handle, "handle", "", "Handle (requerido para atproto)")

	// placeholder: email sintético de un DID
	placeholderCmd := &cobra.Command{
		Use:   "placeholder <did>",
		Short: "Mostrar el email placeholder que corresponde a un DID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printOut(cmd.OutOrStdout(), "text", identity.PlaceholderEmail(args[0]))
			return nil
		},
	}

	// gen secret
	var secretBytes int
	genCmd := &cobra.Command{Use: "gen", Short: "Generadores"}
	genSecretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Generar un secreto compartido aleatorio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secretBytes < 32 {
				return fmt.Errorf("--bytes debe ser >= 32")
			}
			b := make([]byte, secretBytes)
			if _, err := rand.Read(b); err != nil {
				return err
			}
			printOut(cmd.OutOrStdout(), "text", base64.RawURLEncoding.EncodeToString(b))
			return nil
		},
	}
	genSecretCmd.Flags().IntVar(&secretBytes, "bytes", 32, "Bytes de entropía")
	genCmd.AddCommand(genSecretCmd)

	// ping: GET /readyz del servicio
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Consultar /readyz del servicio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := &client{BaseURL: serviceURL, OutFormat: out, HTTP: &http.Client{Timeout: 10 * time.Second}}
			status, body, err := cl.get("/readyz")
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("ping fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				printOut(cmd.OutOrStdout(), "text", "ok")
				return nil
			}
			var v any
			if err := json.Unmarshal(body, &v); err != nil {
				return err
			}
			printOut(cmd.OutOrStdout(), "json", v)
			return nil
		},
	}

	root.AddCommand(tokenCmd, authURLCmd, placeholderCmd, genCmd, pingCmd)
	return root
}
