package pet

import (
	"time"

	"github.com/google/uuid"
)

// Pet belongs to the user whose email equals Owner. Nothing below the
// application enforces that the owner exists.
type Pet struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Breed     string    `json:"breed"`
	Age       string    `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is the projection returned by profile reads.
type Summary struct {
	Name  string `json:"name"`
	Age   string `json:"age"`
	Breed string `json:"breed"`
}

func New(owner, name, breed, age string) Pet {
	return Pet{
		ID:        uuid.NewString(),
		Owner:     owner,
		Name:      name,
		Breed:     breed,
		Age:       age,
		CreatedAt: time.Now().UTC(),
	}
}

func (p Pet) Summary() Summary {
	return Summary{Name: p.Name, Age: p.Age, Breed: p.Breed}
}

func Summaries(pets []Pet) []Summary {
	out := make([]Summary, 0, len(pets))
	for _, p := range pets {
		out = append(out, p.Summary())
	}
	return out
}
