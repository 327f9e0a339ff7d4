// Package sms adaptadores de envío de códigos de verificación.
package sms

import (
	"context"

	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// LogSender no envía nada: escribe el mensaje en el log (modo demostración, sin pasarela SMS).
type LogSender struct {
	log *logger.Logger
}

// NewLogSender construye el emisor de demostración.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.Component("sms")}
}

// Send registra destinatario y mensaje a nivel warn para que sea visible en desarrollo.
func (s *LogSender) Send(_ context.Context, phone, message string) error {
	s.log.Warn().Str("phone", phone).Str("message", message).Msg("SMS (demo)")
	return nil
}
