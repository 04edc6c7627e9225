// Package registry is the compile-time subscription table mapping
// (service, topic) pairs to their durable subscription configuration. It is
// the only place subscription names are constructed — consumers must not
// invent them (§4.B).
package registry

import "fmt"

// Config is a single subscription's tuning parameters.
type Config struct {
	SubscriptionName       string
	BatchSize              int
	AckDeadlineSeconds     int
	RetainAckedMessages    bool
	EnableExactlyOnce      bool
	Filter                 string
	DeadLetterTopic        string
	MaxRetryAttempts       int
}

// defaults holds the fallback values applied to any field an entry leaves
// unset (zero value).
var defaults = Config{
	AckDeadlineSeconds:  60,
	RetainAckedMessages: false,
	EnableExactlyOnce:   false,
	MaxRetryAttempts:    5,
}

// entry is the table's internal row shape before the subscription name's
// fallback and the defaults are merged in by Config().
type entry struct {
	subscriptionName    string
	batchSize           int
	ackDeadlineSeconds  int
	retainAckedMessages bool
	enableExactlyOnce   bool
	filter              string
	deadLetterTopic     string
	maxRetryAttempts    int
}

// table is the full SERVICE_SUBSCRIPTIONS table, keyed by service then
// topic. Exemplar rows taken from §6; services not listed here fall
// through entirely to SubscriptionName's service-topic fallback and
// registry defaults.
var table = map[string]map[string]entry{
	"vespa_loader": {
		"emails":                    {subscriptionName: "vespa-loader-emails", batchSize: 50, ackDeadlineSeconds: 120},
		"calendars":                 {subscriptionName: "vespa-loader-calendars", batchSize: 30, ackDeadlineSeconds: 90},
		"contacts":                  {subscriptionName: "vespa-loader-contacts", batchSize: 50, ackDeadlineSeconds: 60},
		"word_documents":            {subscriptionName: "vespa-loader-word-documents", batchSize: 10, ackDeadlineSeconds: 180},
		"word_fragments":            {subscriptionName: "vespa-loader-word-fragments", batchSize: 10, ackDeadlineSeconds: 180},
		"sheet_documents":           {subscriptionName: "vespa-loader-sheet-documents", batchSize: 10, ackDeadlineSeconds: 180},
		"sheet_fragments":           {subscriptionName: "vespa-loader-sheet-fragments", batchSize: 10, ackDeadlineSeconds: 180},
		"presentation_documents":    {subscriptionName: "vespa-loader-presentation-documents", batchSize: 10, ackDeadlineSeconds: 180},
		"presentation_fragments":    {subscriptionName: "vespa-loader-presentation-fragments", batchSize: 10, ackDeadlineSeconds: 180},
		"task_documents":            {subscriptionName: "vespa-loader-task-documents", batchSize: 20, ackDeadlineSeconds: 90},
		"todos":                     {subscriptionName: "vespa-loader-todos", batchSize: 30, ackDeadlineSeconds: 60},
		"todo_lists":                {subscriptionName: "vespa-loader-todo-lists", batchSize: 30, ackDeadlineSeconds: 60},
	},
	"contact_discovery": {
		"emails":    {subscriptionName: "contact-discovery-emails", batchSize: 100, ackDeadlineSeconds: 60},
		"calendars": {subscriptionName: "contact-discovery-calendars", batchSize: 50, ackDeadlineSeconds: 60},
		"contacts":  {subscriptionName: "contact-discovery-contacts", batchSize: 50, ackDeadlineSeconds: 60},
		"word_documents":         {subscriptionName: "contact-discovery-word-documents", batchSize: 30, ackDeadlineSeconds: 60},
		"sheet_documents":        {subscriptionName: "contact-discovery-sheet-documents", batchSize: 30, ackDeadlineSeconds: 60},
		"presentation_documents": {subscriptionName: "contact-discovery-presentation-documents", batchSize: 30, ackDeadlineSeconds: 60},
		"task_documents":         {subscriptionName: "contact-discovery-task-documents", batchSize: 30, ackDeadlineSeconds: 60},
		"todos":                  {subscriptionName: "contact-discovery-todos", batchSize: 50, ackDeadlineSeconds: 60},
	},
	"meetings": {
		"calendars": {subscriptionName: "meetings-calendars", batchSize: 20, ackDeadlineSeconds: 60},
		"meeting_polls": {subscriptionName: "meetings-meeting-polls", batchSize: 20, ackDeadlineSeconds: 60},
	},
	"shipments": {
		"emails":          {subscriptionName: "shipments-emails", batchSize: 50, ackDeadlineSeconds: 60},
		"shipment_events": {subscriptionName: "shipments-shipment-events", batchSize: 50, ackDeadlineSeconds: 60},
	},
	"frontend_sse": {
		"emails":    {subscriptionName: "frontend-sse-emails", batchSize: 10, ackDeadlineSeconds: 30},
		"calendars": {subscriptionName: "frontend-sse-calendars", batchSize: 10, ackDeadlineSeconds: 30},
		"contacts":  {subscriptionName: "frontend-sse-contacts", batchSize: 10, ackDeadlineSeconds: 30},
	},
}

// SubscriptionName resolves the durable subscription name for (service,
// topic). It falls back to "service-topic" when the pair has no table
// entry, per (P8).
func SubscriptionName(service, topic string) string {
	if svc, ok := table[service]; ok {
		if e, ok := svc[topic]; ok && e.subscriptionName != "" {
			return e.subscriptionName
		}
	}
	return fmt.Sprintf("%s-%s", service, topic)
}

// GetConfig resolves the merged subscription configuration for (service,
// topic): table overrides layered on defaults.
func GetConfig(service, topic string) Config {
	cfg := defaults
	cfg.SubscriptionName = SubscriptionName(service, topic)

	e, ok := table[service][topic]
	if !ok {
		return cfg
	}
	if e.batchSize > 0 {
		cfg.BatchSize = e.batchSize
	}
	if e.ackDeadlineSeconds > 0 {
		cfg.AckDeadlineSeconds = e.ackDeadlineSeconds
	}
	cfg.RetainAckedMessages = e.retainAckedMessages
	cfg.EnableExactlyOnce = e.enableExactlyOnce
	cfg.Filter = e.filter
	cfg.DeadLetterTopic = e.deadLetterTopic
	if e.maxRetryAttempts > 0 {
		cfg.MaxRetryAttempts = e.maxRetryAttempts
	}
	return cfg
}

// TopicsFor returns every topic service subscribes to. The order is not
// defined: it follows map iteration.
func TopicsFor(service string) []string {
	svc, ok := table[service]
	if !ok {
		return nil
	}
	topics := make([]string, 0, len(svc))
	for topic := range svc {
		topics = append(topics, topic)
	}
	return topics
}

// SubscribersOf returns every service subscribed to topic.
func SubscribersOf(topic string) []string {
	var services []string
	for service, svc := range table {
		if _, ok := svc[topic]; ok {
			services = append(services, service)
		}
	}
	return services
}

// Validate reports whether (service, topic) has an explicit table entry.
// A false return is not necessarily an error — callers may still consume
// with the fallback name and registry defaults. pkg/consumer does not call
// it; Runtime.RegisterTopic accepts any (service, topic) pair.
func Validate(service, topic string) bool {
	_, ok := table[service][topic]
	return ok
}
