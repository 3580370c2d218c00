package mq

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"AttendOK/config"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

func Init() error {
	connOnce.Do(func() {
		url := config.Cfg.GetRabbitMQURL()
		conn, connErr = amqp.Dial(url)
	})

	return connErr
}

func Connection() *amqp.Connection {
	return conn
}

func Close() error {
	if conn == nil {
		return nil
	}

	return conn.Close()
}
