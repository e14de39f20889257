// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Decisiones
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request lleva su propio logger con request_id,
//     method y path, inyectado por middlewares.WithLogging.
//   - Entornos: "dev" usa consola con colores, "prod" usa JSON.
//   - Emails: nunca se loguean en claro; usar MaskedEmail().
//
// # Uso
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "memberbridge"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("oauth.reconcile"))
//	log.Info("member created", logger.MemberID(m.ID), logger.Provider(a.Provider))
package logger
