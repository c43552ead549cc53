package bootstrap

import (
	"context"
	"errors"

	"studynotes/internal/transport/http/handler"
)

// HealthChecks lists a probe for every dependency the app was started with.
func (a *App) HealthChecks() []handler.HealthCheck {
	var checks []handler.HealthCheck
	if a.DB != nil {
		checks = append(checks, handler.HealthCheck{Name: a.Config.Store.Driver, Check: func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}
	if a.Redis != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}})
	}
	if a.MQConn != nil {
		checks = append(checks, handler.HealthCheck{Name: "rabbitmq", Check: func(context.Context) error {
			if a.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}})
	}
	return checks
}
