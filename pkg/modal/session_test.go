package modal_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/pangea/pkg/adapters/memory"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/modal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

// signal returns a callback that closes the returned channel once.
func signal() (func(), <-chan struct{}) {
	ch := make(chan struct{})
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }, ch
}

func await(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for continuation")
	}
}

func pushCount(h *memory.Host) func() int {
	return func() int { return len(h.Pushes("")) }
}

func modalProps(uiID string, extra domain.Props) domain.Props {
	props := domain.Props{domain.PropContainer: domain.ContainerFor(uiID)}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// listModal renders one Text element per entry of state["items"].
type listModal struct{}

func (listModal) InitialState(props domain.Props) domain.State {
	return domain.State{"items": []string{}}
}

func (listModal) Render(props domain.Props, state domain.State) (domain.Node, error) {
	if failing, _ := state["fail"].(bool); failing {
		return nil, errors.New("cannot render list")
	}
	var nodes domain.Fragment
	for _, item := range state["items"].([]string) {
		nodes = append(nodes, domain.El("Text", nil, domain.Text(item)))
	}
	return nodes, nil
}

func openList(t *testing.T, host *memory.Host, uiID string, opts ...modal.Option) *modal.Session {
	t.Helper()
	done, ch := signal()
	s, err := modal.Open(context.Background(), host, listModal{}, modalProps(uiID, nil), done, opts...)
	require.NoError(t, err)
	await(t, ch)
	t.Cleanup(s.Close)
	return s
}

func setItems(t *testing.T, s *modal.Session, items ...string) {
	t.Helper()
	done, ch := signal()
	require.NoError(t, s.SetState(domain.State{"items": items}, done))
	await(t, ch)
}

func TestOpen_EmptyModal(t *testing.T) {
	host := memory.NewHost()
	titled := domain.ComponentFunc(func(props domain.Props, state domain.State) (domain.Node, error) {
		return nil, nil
	})

	done, ch := signal()
	s, err := modal.Open(context.Background(), host, titled, modalProps("ui-1", domain.Props{"title": "my title"}), done)
	require.NoError(t, err)
	defer s.Close()
	await(t, ch)

	assert.Equal(t, []string{`{"props":{"title":"my title"},"children":[]}`}, host.Trees("ui-1"))
	assert.Equal(t, "ui-1", s.UIID())

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, `{"props":{"title":"my title"},"children":[]}`, snap.JSON)
}

func TestSession_AddAddRemove(t *testing.T) {
	host := memory.NewHost()
	s := openList(t, host, "ui-2")

	setItems(t, s, "A")
	setItems(t, s, "A", "B")
	setItems(t, s, "B")

	assert.Equal(t, []string{
		`{"props":{},"children":[]}`,
		`{"props":{},"children":[{"type":"Text","props":{},"children":"A"}]}`,
		`{"props":{},"children":[{"type":"Text","props":{},"children":"A"},{"type":"Text","props":{},"children":"B"}]}`,
		`{"props":{},"children":[{"type":"Text","props":{},"children":"B"}]}`,
	}, host.Trees("ui-2"))

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 4, snap.Version)
	assert.Equal(t, []any{&domain.Tree{Type: "Text", Props: map[string]any{}, Children: "B"}}, s.Tree().Children)
}

func TestSession_AddThenRemoveSendsSettledTree(t *testing.T) {
	host := memory.NewHost()
	s := openList(t, host, "ui-3")

	setItems(t, s, "B")
	setItems(t, s, "B", "C")
	setItems(t, s, "B")

	trees := host.Trees("ui-3")
	require.Len(t, trees, 4)
	assert.Equal(t, trees[1], trees[3], "the settled tree is delivered again after the intermediate one")
}

func TestSession_UnchangedTreeSkipsPush(t *testing.T) {
	var skipped atomic.Int32
	hooks := domain.LifecycleHooks{
		OnSkip: func(ctx context.Context, e *domain.PushEvent) { skipped.Add(1) },
	}
	host := memory.NewHost()
	s := openList(t, host, "ui-4", modal.WithLifecycleHooks(hooks))

	done, ch := signal()
	require.NoError(t, s.SetState(domain.State{"unrelated": 42}, done))
	await(t, ch)

	assert.Len(t, host.Pushes("ui-4"), 1)
	assert.Equal(t, int32(1), skipped.Load())
	assert.Equal(t, 42, s.State()["unrelated"])
}

type clickModal struct {
	onClick func()
}

func (m clickModal) Render(props domain.Props, state domain.State) (domain.Node, error) {
	return domain.El("Button", domain.Props{"onEvent": m.onClick}, domain.Text("Click")), nil
}

func TestSession_FunctionPropBecomesHandle(t *testing.T) {
	host := memory.NewHost()
	var clicked bool
	m := clickModal{onClick: func() { clicked = true }}

	done, ch := signal()
	s, err := modal.Open(context.Background(), host, m, modalProps("ui-5", nil), done)
	require.NoError(t, err)
	defer s.Close()
	await(t, ch)

	assert.Equal(t, []string{
		`{"props":{},"children":[{"type":"Button","props":{"onEvent":1},"children":"Click"}]}`,
	}, host.Trees("ui-5"))
	assert.False(t, clicked)

	fn, ok := host.Lookup(1)
	require.True(t, ok)
	fn.(func())()
	assert.True(t, clicked, "the host invokes the function through its handle")
}

func TestSession_OnePushInFlight(t *testing.T) {
	host := memory.NewHost(memory.WithManualAck())

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		}
	}

	s, err := modal.Open(context.Background(), host, listModal{}, modalProps("ui-6", nil), record("open"))
	require.NoError(t, err)
	defer s.Close()

	require.Eventually(t, func() bool { return pushCount(host)() == 1 }, waitFor, time.Millisecond)
	require.NoError(t, s.SetState(domain.State{"items": []string{"A"}}, record("A")))
	require.NoError(t, s.SetState(domain.State{"items": []string{"A", "B"}}, record("AB")))

	assert.Never(t, func() bool { return pushCount(host)() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Eventually(t, func() bool { return pushCount(host)() == i+1 }, waitFor, time.Millisecond)
		host.Pushes("ui-6")[i].Ack()
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, waitFor, time.Millisecond)
	assert.Equal(t, []string{"open", "A", "AB"}, order)
	assert.Len(t, host.Pushes("ui-6"), 3)
}

func TestSession_ReentrantUpdateFromContinuation(t *testing.T) {
	host := memory.NewHost()
	s := openList(t, host, "ui-7")

	done, ch := signal()
	require.NoError(t, s.SetState(domain.State{"items": []string{"A"}}, func() {
		assert.NoError(t, s.SetState(domain.State{"items": []string{"A", "B"}}, done))
	}))
	await(t, ch)

	assert.Len(t, host.Trees("ui-7"), 3)
}

func TestSession_ReentrantUpdateFromAck(t *testing.T) {
	var session atomic.Pointer[modal.Session]
	var pushes atomic.Int32
	reentrant, ch := signal()

	host := memory.NewHost(memory.WithManualAck(), memory.WithOnPush(func(p memory.Push) {
		n := pushes.Add(1)
		p.Ack()
		if n == 2 {
			assert.NoError(t, session.Load().SetState(domain.State{"items": []string{"from-ack"}}, reentrant))
		}
	}))

	opened, openCh := signal()
	s, err := modal.Open(context.Background(), host, listModal{}, modalProps("ui-8", nil), opened)
	require.NoError(t, err)
	defer s.Close()
	session.Store(s)
	await(t, openCh)

	setItems(t, s, "A")
	await(t, ch)

	trees := host.Trees("ui-8")
	require.Len(t, trees, 3)
	assert.Equal(t, `{"props":{},"children":[{"type":"Text","props":{},"children":"from-ack"}]}`, trees[2])
}

func TestOpen_RenderFailure(t *testing.T) {
	host := memory.NewHost()
	cause := errors.New("bad props")
	failing := domain.ComponentFunc(func(props domain.Props, state domain.State) (domain.Node, error) {
		return nil, cause
	})

	called := false
	s, err := modal.Open(context.Background(), host, failing, modalProps("ui-9", nil), func() { called = true })

	assert.Nil(t, s)
	assert.ErrorIs(t, err, domain.ErrRender)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, host.Pushes(""))
	assert.False(t, called)
}

func TestOpen_MissingContainer(t *testing.T) {
	host := memory.NewHost()

	_, err := modal.Open(context.Background(), host, listModal{}, domain.Props{"title": "x"}, nil)
	assert.ErrorIs(t, err, domain.ErrMissingContainer)

	_, err = modal.Open(context.Background(), host, listModal{}, domain.Props{domain.PropContainer: "ui-10"}, nil)
	assert.ErrorIs(t, err, domain.ErrMissingContainer)
}

func TestSession_QueuedRenderFailure(t *testing.T) {
	errs := make(chan error, 1)
	hooks := domain.LifecycleHooks{
		OnError: func(ctx context.Context, e *domain.ErrorEvent) { errs <- e.Err },
	}
	host := memory.NewHost()
	s := openList(t, host, "ui-11", modal.WithLifecycleHooks(hooks))
	before := s.Tree()

	called := false
	require.NoError(t, s.SetState(domain.State{"fail": true}, func() { called = true }))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, domain.ErrRender)
	case <-time.After(waitFor):
		t.Fatal("expected an error event")
	}
	assert.False(t, called, "a failed pass never resolves its continuation")
	assert.Same(t, before, s.Tree())

	// The session keeps working after a failed pass.
	done, ch := signal()
	require.NoError(t, s.SetState(domain.State{"fail": false, "items": []string{"ok"}}, done))
	await(t, ch)
	assert.Len(t, host.Pushes("ui-11"), 2)
}

// tickerModal bumps its own state once mounted.
type tickerModal struct{}

func (tickerModal) InitialState(props domain.Props) domain.State {
	return domain.State{"tick": 0}
}

func (tickerModal) Mount(u domain.Updater) {
	_ = u.SetState(domain.State{"tick": 1}, nil)
}

func (tickerModal) Render(props domain.Props, state domain.State) (domain.Node, error) {
	return domain.El("Text", nil, domain.Number(state["tick"].(int))), nil
}

func TestSession_MountedComponentUpdatesItself(t *testing.T) {
	host := memory.NewHost()

	s, err := modal.Open(context.Background(), host, tickerModal{}, modalProps("ui-12", nil), nil)
	require.NoError(t, err)
	defer s.Close()

	require.Eventually(t, func() bool { return len(host.Trees("ui-12")) == 2 }, waitFor, time.Millisecond)
	assert.Equal(t, `{"props":{},"children":[{"type":"Text","props":{},"children":1}]}`, host.Trees("ui-12")[1])
}

func TestSession_Coalesce(t *testing.T) {
	host := memory.NewHost(memory.WithManualAck())
	s, err := modal.Open(context.Background(), host, listModal{}, modalProps("ui-13", nil), nil, modal.WithCoalesce(true))
	require.NoError(t, err)
	defer s.Close()

	require.Eventually(t, func() bool { return pushCount(host)() == 1 }, waitFor, time.Millisecond)

	var resolved atomic.Int32
	for _, items := range [][]string{{"A"}, {"A", "B"}, {"A", "B", "C"}} {
		require.NoError(t, s.SetState(domain.State{"items": items}, func() { resolved.Add(1) }))
	}
	host.Pushes("ui-13")[0].Ack()

	require.Eventually(t, func() bool { return pushCount(host)() == 2 }, waitFor, time.Millisecond)
	host.Pushes("ui-13")[1].Ack()

	require.Eventually(t, func() bool { return resolved.Load() == 3 }, waitFor, time.Millisecond)
	assert.Len(t, host.Pushes("ui-13"), 2)
	assert.Equal(t, []string{"A", "B", "C"}, s.State()["items"])
}

func TestSession_Close(t *testing.T) {
	host := memory.NewHost(memory.WithManualAck())

	called := false
	s, err := modal.Open(context.Background(), host, listModal{}, modalProps("ui-14", nil), func() { called = true })
	require.NoError(t, err)

	require.Eventually(t, func() bool { return pushCount(host)() == 1 }, waitFor, time.Millisecond)
	s.Close()
	s.Close()
	host.Pushes("ui-14")[0].Ack()

	assert.ErrorIs(t, s.SetState(domain.State{"items": []string{"A"}}, nil), domain.ErrSessionClosed)
	assert.Never(t, func() bool { return called || pushCount(host)() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	_, ok := s.Snapshot()
	assert.False(t, ok)
}

func TestSession_ObserverAndHooks(t *testing.T) {
	var mu sync.Mutex
	var snaps []domain.Snapshot
	var changes []domain.TreeDiff

	hooks := domain.LifecycleHooks{
		OnPush: func(ctx context.Context, e *domain.PushEvent) {
			mu.Lock()
			defer mu.Unlock()
			changes = append(changes, e.Changes)
		},
	}
	observer := func(ctx context.Context, snap domain.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snaps = append(snaps, snap)
	}

	host := memory.NewHost()
	s := openList(t, host, "ui-15", modal.WithLifecycleHooks(hooks), modal.WithObserver(observer))
	setItems(t, s, "A")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snaps, 2)
	assert.Equal(t, 1, snaps[0].Version)
	assert.Equal(t, 2, snaps[1].Version)
	assert.Equal(t, host.Trees("ui-15")[1], snaps[1].JSON)

	require.Len(t, changes, 2)
	assert.Equal(t, domain.TreeDiff{{Op: domain.OpReplace, Path: "$"}}, changes[0])
	assert.Equal(t, domain.TreeDiff{{Op: domain.OpAdd, Path: "$.children[0]"}}, changes[1])
}

func TestSession_IndependentSessions(t *testing.T) {
	host := memory.NewHost()
	ids := []string{"ui-a", "ui-b", "ui-c"}

	sessions := make([]*modal.Session, len(ids))
	for i, id := range ids {
		sessions[i] = openList(t, host, id)
	}

	var wg sync.WaitGroup
	for i, s := range sessions {
		i, s := i, s
		wg.Add(1)
		go func() {
			_ = s.SetState(domain.State{"items": []string{ids[i]}}, wg.Done)
		}()
	}

	finished, ch := signal()
	go func() {
		wg.Wait()
		finished()
	}()
	await(t, ch)

	for _, id := range ids {
		assert.Len(t, host.Trees(id), 2, id)
	}
}

// amountModal shows state["wei"] as a prop and state["ratio"] as a number.
type amountModal struct{}

func (amountModal) Render(props domain.Props, state domain.State) (domain.Node, error) {
	ratio, _ := state["ratio"].(float64)
	return domain.El("Text", domain.Props{"wei": state["wei"]}, domain.Number(ratio)), nil
}

func TestSession_LargeIntegerChangeIsPushed(t *testing.T) {
	host := memory.NewHost()
	props := modalProps("ui-wei", nil)

	done, ch := signal()
	s, err := modal.Open(context.Background(), host, amountModal{}, props, done)
	require.NoError(t, err)
	defer s.Close()
	await(t, ch)

	for _, wei := range []int64{9007199254740992, 9007199254740993} {
		done, ch := signal()
		require.NoError(t, s.SetState(domain.State{"wei": wei}, done))
		await(t, ch)
	}

	trees := host.Trees("ui-wei")
	require.Len(t, trees, 3)
	assert.Contains(t, trees[1], `"wei":9007199254740992`)
	assert.Contains(t, trees[2], `"wei":9007199254740993`)
}

func TestOpen_NilFunctionProp(t *testing.T) {
	host := memory.NewHost()

	var handler func()
	done, ch := signal()
	s, err := modal.Open(context.Background(), host, clickModal{onClick: handler}, modalProps("ui-nil", nil), done)
	require.NoError(t, err)
	defer s.Close()
	await(t, ch)

	assert.Equal(t, []string{
		`{"props":{},"children":[{"type":"Button","props":{},"children":"Click"}]}`,
	}, host.Trees("ui-nil"))
	assert.Zero(t, host.Len())
}

func TestOpen_NonFiniteNumber(t *testing.T) {
	host := memory.NewHost()
	nan := domain.ComponentFunc(func(props domain.Props, state domain.State) (domain.Node, error) {
		return domain.El("Text", nil, domain.Number(math.NaN())), nil
	})

	called := false
	s, err := modal.Open(context.Background(), host, nan, modalProps("ui-nan", nil), func() { called = true })

	assert.Nil(t, s)
	assert.ErrorIs(t, err, domain.ErrInvalidElement)
	assert.Empty(t, host.Pushes(""))
	assert.False(t, called)
}

func TestSession_QueuedNonFiniteNumber(t *testing.T) {
	errs := make(chan error, 1)
	hooks := domain.LifecycleHooks{
		OnError: func(ctx context.Context, e *domain.ErrorEvent) { errs <- e.Err },
	}
	host := memory.NewHost()

	done, ch := signal()
	s, err := modal.Open(context.Background(), host, amountModal{}, modalProps("ui-inf", nil), done, modal.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	defer s.Close()
	await(t, ch)

	require.NoError(t, s.SetState(domain.State{"ratio": math.Inf(1)}, nil))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, domain.ErrInvalidElement)
	case <-time.After(waitFor):
		t.Fatal("expected an error event")
	}
	assert.Len(t, host.Pushes("ui-inf"), 1)
}

// counterModal renders a button whose label follows state["n"].
type counterModal struct{}

func (counterModal) Render(props domain.Props, state domain.State) (domain.Node, error) {
	n, _ := state["n"].(int)
	return domain.El("Button", domain.Props{"onEvent": func() {}}, domain.Number(float64(n))), nil
}

func TestSession_ReleasesReplacedHandles(t *testing.T) {
	host := memory.NewHost()

	done, ch := signal()
	s, err := modal.Open(context.Background(), host, counterModal{}, modalProps("ui-handles", nil), done)
	require.NoError(t, err)
	defer s.Close()
	await(t, ch)

	for n := 1; n <= 3; n++ {
		done, ch := signal()
		require.NoError(t, s.SetState(domain.State{"n": n}, done))
		await(t, ch)
	}

	require.Len(t, host.Trees("ui-handles"), 4)
	assert.Equal(t, 1, host.Len(), "only the handles of the shown tree stay registered")
	_, ok := host.Lookup(1)
	assert.False(t, ok)
	_, ok = host.Lookup(4)
	assert.True(t, ok)
}
