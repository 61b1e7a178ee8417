package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "workforce"
)

// Ключи (кэш и блокировки)
const (
	RedisKeyAnalyticsPrefix = RedisNamespace + ":analytics:snapshot:"
	RedisKeyLockWarmup      = RedisNamespace + ":lock:warmup:analytics"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanFeatureFlags - изменения фич-флагов тенанта, формат "tenant_id:feature=on|off".
	RedisChanFeatureFlags   = RedisNamespace + ":tenants:feature-signal"
	RedisChanAutomationRule = RedisNamespace + ":automation:rule-signal"
	RedisChanAccessRequests = RedisNamespace + ":tenants:access-requests"
)

// AnalyticsSnapshotKey - ключ L2-кэша снапшота аналитики.
func AnalyticsSnapshotKey(fingerprint string) string {
	return RedisKeyAnalyticsPrefix + fingerprint
}

// FeatureSignal формирует payload сигнала о смене флага.
func FeatureSignal(tenantID, feature string, on bool) string {
	state := "off"
	if on {
		state = "on"
	}
	return fmt.Sprintf("%s:%s=%s", tenantID, feature, state)
}
