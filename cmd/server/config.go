package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	RedisURL             string        `env:"REDIS_URL,required=true"`
	JwtSecret            string        `env:"JWT_SECRET,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	ChannelTTL           time.Duration `env:"CHANNEL_TTL,default=1h"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=10s"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	CensorMask           string        `env:"CENSOR_MASK,default=*"`
}
