package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionNameKnownPair(t *testing.T) {
	assert.Equal(t, "vespa-loader-emails", SubscriptionName("vespa_loader", "emails"))
}

func TestSubscriptionNameFallback(t *testing.T) {
	assert.Equal(t, "unknown_service-unknown_topic", SubscriptionName("unknown_service", "unknown_topic"))
}

func TestGetConfigAppliesDefaults(t *testing.T) {
	cfg := GetConfig("unknown_service", "unknown_topic")
	assert.Equal(t, 60, cfg.AckDeadlineSeconds)
	assert.Equal(t, 5, cfg.MaxRetryAttempts)
	assert.False(t, cfg.RetainAckedMessages)
}

func TestGetConfigAppliesOverrides(t *testing.T) {
	cfg := GetConfig("vespa_loader", "word_documents")
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 180, cfg.AckDeadlineSeconds)
}

func TestSubscribersOfReturnsAllServices(t *testing.T) {
	services := SubscribersOf("emails")
	assert.Contains(t, services, "vespa_loader")
	assert.Contains(t, services, "contact_discovery")
	assert.Contains(t, services, "shipments")
	assert.Contains(t, services, "frontend_sse")
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate("vespa_loader", "emails"))
	assert.False(t, Validate("vespa_loader", "nonexistent"))
}
