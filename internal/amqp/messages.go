package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"nutrihelper/internal/core"
)

// EntryLoggedMessage announces a food entry accepted by the backend. The
// event id lets consumers drop redeliveries.
type EntryLoggedMessage struct {
	EventID   string       `json:"event_id"`
	User      string       `json:"user"`
	Entry     EntryPayload `json:"entry"`
	Timestamp time.Time    `json:"timestamp"`
}

type EntryPayload struct {
	Name          string    `json:"name"`
	Portion       float64   `json:"portion"`
	Unit          string    `json:"unit"`
	Calories      float64   `json:"calories"`
	Protein       float64   `json:"protein"`
	Fat           float64   `json:"fat"`
	Carbohydrates float64   `json:"carbohydrates"`
	Fiber         float64   `json:"fiber"`
	Sugar         float64   `json:"sugar"`
	MealType      string    `json:"meal_type"`
	ConsumedAt    time.Time `json:"consumed_at"`
}

var errIncompleteMessage = errors.New("message is missing event_id or user")

func NewEntryLoggedMessage(user string, e core.FoodEntry) *EntryLoggedMessage {
	return &EntryLoggedMessage{
		EventID: uuid.NewString(),
		User:    user,
		Entry: EntryPayload{
			Name:          e.Name,
			Portion:       e.Portion,
			Unit:          e.Unit,
			Calories:      e.Macros.Calories,
			Protein:       e.Macros.Protein,
			Fat:           e.Macros.Fat,
			Carbohydrates: e.Macros.Carbohydrates,
			Fiber:         e.Macros.Fiber,
			Sugar:         e.Macros.Sugar,
			MealType:      string(e.MealType),
			ConsumedAt:    e.ConsumedAt.UTC(),
		},
		Timestamp: time.Now().UTC(),
	}
}

// FoodEntry converts the payload back into a domain entry.
func (m *EntryLoggedMessage) FoodEntry() core.FoodEntry {
	p := m.Entry
	return core.FoodEntry{
		Name:    p.Name,
		Portion: p.Portion,
		Unit:    p.Unit,
		Macros: core.Macros{
			Calories:      p.Calories,
			Protein:       p.Protein,
			Fat:           p.Fat,
			Carbohydrates: p.Carbohydrates,
			Fiber:         p.Fiber,
			Sugar:         p.Sugar,
		},
		MealType:   core.MealType(p.MealType),
		ConsumedAt: p.ConsumedAt.UTC(),
	}
}

func (m *EntryLoggedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryLoggedMessageFromJSON(data []byte) (*EntryLoggedMessage, error) {
	var msg EntryLoggedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" || msg.User == "" {
		return nil, errIncompleteMessage
	}
	return &msg, nil
}
