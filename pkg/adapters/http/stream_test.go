package http

import (
	"testing"

	"github.com/aretw0/pangea/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestStreamManager_Broadcast(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())

	modalCh, cancelModal := sm.Subscribe("ui-1")
	globalCh, cancelGlobal := sm.Subscribe("")
	otherCh, cancelOther := sm.Subscribe("ui-2")
	defer cancelGlobal()
	defer cancelOther()

	sm.Broadcast("ui-1", Event{Name: EventRender, Data: "tree"})

	assert.Equal(t, Event{Name: EventRender, Data: "tree"}, <-modalCh)
	assert.Equal(t, Event{Name: EventRender, Data: "tree"}, <-globalCh)
	assert.Empty(t, otherCh)

	cancelModal()
	cancelModal()
	assert.Equal(t, 0, sm.Subscribers("ui-1"))

	_, open := <-modalCh
	assert.False(t, open)
}

func TestStreamManager_SlowSubscriberDropsEvents(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	ch, cancel := sm.Subscribe("ui-1")
	defer cancel()

	for i := 0; i < 100; i++ {
		sm.Broadcast("ui-1", Event{Name: EventDiff, Data: "x"})
	}
	assert.Len(t, ch, cap(ch))
}
