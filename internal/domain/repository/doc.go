// Package repository define el contrato del member store externo.
//
// El core nunca asume un motor concreto: reconciliación y completado de perfil
// dependen solo de MemberRepository. Las implementaciones viven en
// internal/store/pg (Postgres) e internal/store/memory (dev y tests).
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - El email canónico es único; Create devuelve ErrConflict si ya existe
//   - Errores de dominio están en errors.go
package repository
