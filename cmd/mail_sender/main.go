package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"club_service/internal/config"
	sl "club_service/internal/lib/logger"
	"club_service/internal/mailsender"
	"club_service/internal/models"
	"club_service/internal/rabbitmq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad("./config/config.yaml")

	log := sl.Setup(cfg.Env)

	log.Info("Starting mail sender", slog.String("env", cfg.Env))

	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to init rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer r.Close()

	m := &mailsender.Mailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}

	err = r.Consume(ctx, func(body []byte) {
		var msg models.EmailMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			log.Error("failed to unmarshal message", sl.Err(err))
			return
		}

		if err := m.Send(msg.To, msg.Subject, msg.HTML); err != nil {
			log.Error("failed to send email",
				slog.String("to", msg.To), sl.Err(err))
			return
		}

		log.Info("Email sent", slog.String("to", msg.To))
	})
	if err != nil {
		log.Error("consumer stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("Mail sender stopped")
}
