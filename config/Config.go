package config

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type EncoderDecoderType string

const JSON_ENCODER_DECODER EncoderDecoderType = "JSON"

type Config struct {
	RedisConfig        RedisStorageConfig
	HttpPort           int
	StorageType        StorageType
	EncoderDecoderType EncoderDecoderType
	// SystemUser is the injected service identity used as starter for
	// calendar-triggered instances.
	SystemUser         string
	OverdueScanSeconds int
	// RoleUsers maps role ids to usernames; EscalationChain maps a
	// user to the escalation target. Both feed the static role
	// resolver when no directory integration is configured.
	RoleUsers       map[int64]string
	EscalationChain map[string]string
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}
