package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEmailEvent() *EmailEvent {
	e := &EmailEvent{
		Envelope: Envelope{
			Metadata: Metadata{
				EventID:       "11111111-1111-7111-8111-111111111111",
				Timestamp:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				SourceService: "office-service",
				SourceVersion: SourceVersion,
			},
			UserID:        "u1",
			Operation:     OperationCreate,
			Provider:      "gmail",
			LastUpdated:   NewFlexTime(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)),
			SyncTimestamp: NewFlexTime(time.Date(2024, 1, 1, 10, 0, 1, 0, time.UTC)),
		},
		Email: EmailData{
			ID:          "e1",
			Subject:     "Hello",
			Body:        "Hi",
			FromAddress: "a@x.com",
			ToAddresses: []string{"b@y.com"},
		},
	}
	return e
}

func TestParseSerializeRoundTrip(t *testing.T) {
	e := sampleEmailEvent()
	data, err := Serialize(e)
	require.NoError(t, err)

	parsed, err := Parse(TopicEmails, data)
	require.NoError(t, err)

	got, ok := parsed.(*EmailEvent)
	require.True(t, ok)
	assert.Equal(t, e, got)
}

func TestParseAcceptsLegacyTimestampFormats(t *testing.T) {
	e := sampleEmailEvent()
	data, err := Serialize(e)
	require.NoError(t, err)

	spaceForm := []byte(replaceAll(string(data), `"2024-01-01T10:00:00Z"`, `"2024-01-01 10:00:00+00:00"`))
	parsed, err := Parse(TopicEmails, spaceForm)
	require.NoError(t, err)
	got := parsed.(*EmailEvent)
	assert.Equal(t, e.LastUpdated.Unix(), got.LastUpdated.Unix())
}

func TestParseRejectsMissingRequiredFields(t *testing.T) {
	e := sampleEmailEvent()
	e.UserID = ""
	data, err := Serialize(e)
	require.NoError(t, err)

	_, err = Parse(TopicEmails, data)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParseUnknownTopic(t *testing.T) {
	_, err := Parse("not_a_topic", []byte(`{}`))
	require.Error(t, err)
}

func TestEntityIDPerKind(t *testing.T) {
	assert.Equal(t, "e1", EntityID(sampleEmailEvent()))
	assert.Equal(t, "c1", EntityID(&CalendarEvent{Calendar: CalendarData{ID: "c1"}}))
	assert.Equal(t, "ct1", EntityID(&ContactEvent{Contact: ContactData{ID: "ct1"}}))
	assert.Equal(t, "d1", EntityID(&DocumentEvent{Document: DocumentData{ID: "d1"}}))
	assert.Equal(t, "f1", EntityID(&DocumentFragmentEvent{Fragment: DocumentFragmentData{ID: "f1"}}))
	assert.Equal(t, "t1", EntityID(&TodoEvent{Todo: TodoData{ID: "t1"}}))
	assert.Equal(t, "l1", EntityID(&TodoListEvent{TodoList: TodoListData{ID: "l1"}}))
	assert.Equal(t, "m1", EntityID(&LLMChatEvent{Message: LLMChatData{ID: "m1"}}))
	assert.Equal(t, "s1", EntityID(&ShipmentEvent{ShipmentEvent: ShipmentEventData{ID: "s1"}}))
	assert.Equal(t, "p1", EntityID(&MeetingPollEvent{Poll: MeetingPollData{ID: "p1"}}))
	assert.Equal(t, "b1", EntityID(&BookingEvent{Booking: BookingData{ID: "b1"}}))
}

// replaceAll avoids importing strings twice for a one-off test helper.
func replaceAll(s, old, new string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if i+len(old) <= len(s) && s[i:i+len(old)] == old {
			out = append(out, new...)
			i += len(old)
			continue
		}
		out = append(out, s[i])
		i++
	}
	return string(out)
}
