package notification

import (
	"fmt"

	"salonbook/internal/config"
)

// FromConfig builds the dispatcher selected by NOTIFY_DRIVER. The returned
// close func releases driver resources and is always safe to call.
func FromConfig(cfg *config.Config) (Dispatcher, func() error, error) {
	salon := Salon{Name: cfg.SalonName, Address: cfg.SalonAddress, Phone: cfg.SalonPhone}
	noop := func() error { return nil }

	switch cfg.NotifyDriver {
	case config.NotifyDriverSMTP:
		return NewMailDispatcher(MailConfig{
			Enabled:  cfg.EmailEnabled,
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.EmailUser,
			Password: cfg.EmailPassword,
			From:     cfg.EmailFrom,
		}, salon), noop, nil
	case config.NotifyDriverAMQP:
		d, err := NewAMQPDispatcher(cfg.AMQPURL, cfg.AMQPExchange, salon)
		if err != nil {
			return nil, noop, err
		}
		return d, d.Close, nil
	case config.NotifyDriverLog, "":
		return NewLogDispatcher(salon), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown notify driver %q", cfg.NotifyDriver)
}
