package main

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Environment variables that override built-in flag defaults. A .env file in
// the working directory is loaded first if present.
const (
	envPort          = "PROX_PORT"
	envBaud          = "PROX_BAUD"
	envPoll          = "PROX_POLL"
	envBroker        = "PROX_BROKER"
	envHeartbeat     = "PROX_HEARTBEAT"
	envThresholdLow  = "PROX_THRESHOLD_LOW"
	envThresholdHigh = "PROX_THRESHOLD_HIGH"
	envProxTable     = "PROX_TABLE"
	envChannels      = "PROX_CHANNELS"
	envLightPin      = "PROX_LIGHT_PIN"
	envHTTP          = "PROX_HTTP"
)

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvUint16(key string, defaultValue uint16) uint16 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	v, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		log.Printf("warning: failed to parse %s as uint16, using default: %v", key, err)
		return defaultValue
	}
	return uint16(v)
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}
