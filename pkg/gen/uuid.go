package gen

import (
	"github.com/google/uuid"
)

type UUIDGenerator func() uuid.UUID

func UUID() UUIDGenerator {
	return func() uuid.UUID {
		return uuid.Must(uuid.NewRandom())
	}
}

// Sequence returns a generator that yields ids in order and then uuid.Nil.
func Sequence(ids ...uuid.UUID) UUIDGenerator {
	i := 0
	return func() uuid.UUID {
		if i >= len(ids) {
			return uuid.Nil
		}
		id := ids[i]
		i++
		return id
	}
}

func (g UUIDGenerator) Next() uuid.UUID {
	if g == nil {
		return uuid.Nil
	}

	return g()
}

func (g UUIDGenerator) String() string {
	return g.Next().String()
}
