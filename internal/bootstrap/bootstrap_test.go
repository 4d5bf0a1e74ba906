package bootstrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/svclocator/internal/config"
	"github.com/fyrsmithlabs/svclocator/internal/logging"
	"github.com/fyrsmithlabs/svclocator/internal/services"
)

type stubService struct {
	name     string
	priority services.Priority
	auto     bool
	started  int
	stopped  int
	paused   []bool
	released int
	relErr   error
}

func (s *stubService) Name() string                   { return s.name }
func (s *stubService) GetPriority() services.Priority { return s.priority }
func (s *stubService) DoAutoStart() bool              { return s.auto }
func (s *stubService) OnStart()                       { s.started++ }
func (s *stubService) OnStop()                        { s.stopped++ }
func (s *stubService) OnPause(p bool)                 { s.paused = append(s.paused, p) }
func (s *stubService) Update()                        {}

// Distinct concrete types; the registry keys on type identity.
type (
	audioService struct{ stubService }
	inputService struct{ stubService }
	saveService  struct{ stubService }
)

// hostService owns a host resource.
type hostService struct{ stubService }

func (h *hostService) Release() error {
	h.released++
	return h.relErr
}

func boolPtr(b bool) *bool { return &b }

func testCatalog() (*Catalog, map[string]services.Service) {
	made := map[string]services.Service{}
	c := NewCatalog()
	c.Add("audio", func(Env) (services.Service, error) {
		s := &audioService{stubService{name: "audio", priority: services.High, auto: true}}
		made["audio"] = s
		return s, nil
	})
	c.Add("input", func(Env) (services.Service, error) {
		s := &inputService{stubService{name: "input", priority: services.VeryHigh, auto: true}}
		made["input"] = s
		return s, nil
	})
	c.Add("save", func(Env) (services.Service, error) {
		s := &saveService{stubService{name: "save", priority: services.Low, auto: false}}
		made["save"] = s
		return s, nil
	})
	return c, made
}

func TestCatalog_Add(t *testing.T) {
	c := NewCatalog()
	noop := func(Env) (services.Service, error) { return nil, nil }

	c.Add("b", noop)
	c.Add("a", noop)
	assert.Equal(t, []string{"a", "b"}, c.Names())

	assert.Panics(t, func() { c.Add("a", noop) })
	assert.Panics(t, func() { c.Add("", noop) })
	assert.Panics(t, func() { c.Add("c", nil) })
}

func TestCandidates_AutoStartFromService(t *testing.T) {
	c, _ := testCatalog()

	cands, err := c.Candidates(nil, Deps{})
	require.NoError(t, err)
	require.Len(t, cands, 3)

	// Name order.
	assert.Equal(t, "audio", cands[0].Name)
	assert.Equal(t, "input", cands[1].Name)
	assert.Equal(t, "save", cands[2].Name)

	assert.True(t, cands[0].AutoStart)
	assert.True(t, cands[1].AutoStart)
	assert.False(t, cands[2].AutoStart)
	assert.Nil(t, cands[0].Release)
}

func TestCandidates_Overrides(t *testing.T) {
	c, _ := testCatalog()

	cands, err := c.Candidates(Overrides{
		"audio": {Disabled: true},
		"input": {AutoStart: boolPtr(false)},
		"save":  {AutoStart: boolPtr(true)},
	}, Deps{})
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.Equal(t, "input", cands[0].Name)
	assert.False(t, cands[0].AutoStart)
	assert.Equal(t, "save", cands[1].Name)
	assert.True(t, cands[1].AutoStart)
}

func TestCandidates_FactoryEnv(t *testing.T) {
	c := NewCatalog()
	reg := services.NewRegistry()

	var got Env
	c.Add("audio", func(env Env) (services.Service, error) {
		got = env
		return &audioService{}, nil
	})

	_, err := c.Candidates(Overrides{"audio": {Every: 30, Path: "/tmp/x"}}, Deps{Statuses: reg})
	require.NoError(t, err)

	assert.Equal(t, "audio", got.Name)
	assert.Equal(t, 30, got.Config.Every)
	assert.Equal(t, "/tmp/x", got.Config.Path)
	assert.NotNil(t, got.Logger)
	assert.Same(t, reg, got.Statuses)
}

func TestCandidates_FactoryErrors(t *testing.T) {
	c, _ := testCatalog()
	boom := errors.New("boom")
	c.Add("broken", func(Env) (services.Service, error) { return nil, boom })
	c.Add("empty", func(Env) (services.Service, error) { return nil, nil })

	cands, err := c.Candidates(nil, Deps{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, services.ErrNilService)
	assert.Contains(t, err.Error(), "create broken")

	// The healthy factories still produced candidates.
	assert.Len(t, cands, 3)
}

func TestCandidates_Releaser(t *testing.T) {
	c := NewCatalog()
	host := &hostService{}
	c.Add("host", func(Env) (services.Service, error) { return host, nil })

	cands, err := c.Candidates(nil, Deps{})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.NotNil(t, cands[0].Release)

	require.NoError(t, cands[0].Release())
	assert.Equal(t, 1, host.released)
}

func TestBootstrap_RegistersSortsAndStarts(t *testing.T) {
	c, made := testCatalog()
	reg := services.NewRegistry()

	cands, err := c.Candidates(nil, Deps{Statuses: reg})
	require.NoError(t, err)

	res := Bootstrap(reg, cands)
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"audio", "input"}, res.Registered)
	assert.Equal(t, []string{"save"}, res.Skipped)

	// Sorted by priority: input (VeryHigh) before audio (High).
	statuses := reg.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "input", statuses[0].Name)
	assert.Equal(t, "audio", statuses[1].Name)
	for _, st := range statuses {
		assert.True(t, st.Running, st.Name)
	}

	assert.Equal(t, 1, made["audio"].(*audioService).started)
	assert.Equal(t, 0, made["save"].(*saveService).started)

	_, found := reg.StatusByName("save")
	assert.False(t, found)
}

func TestBootstrap_ReleasesSkippedHostResources(t *testing.T) {
	reg := services.NewRegistry()
	skipped := &hostService{stubService{name: "skipped"}}

	res := Bootstrap(reg, []Candidate{
		{Name: "skipped", Service: skipped, AutoStart: false, Release: skipped.Release},
	})
	require.NoError(t, res.Err)
	assert.Equal(t, 1, skipped.released)
	assert.Equal(t, 0, reg.Len())
}

func TestBootstrap_HostManagedRegistration(t *testing.T) {
	reg := services.NewRegistry()
	kept := &hostService{stubService{name: "kept", auto: true}}

	res := Bootstrap(reg, []Candidate{
		{Name: "kept", Service: kept, AutoStart: true, Release: kept.Release},
	})
	require.NoError(t, res.Err)
	assert.Equal(t, 0, kept.released)

	st, ok := reg.StatusByName("kept")
	require.True(t, ok)
	assert.True(t, st.HostManaged)

	require.NoError(t, reg.Unregister(kept))
	assert.Equal(t, 1, kept.released)
}

func TestBootstrap_CollectsErrors(t *testing.T) {
	reg := services.NewRegistry()
	relErr := errors.New("release failed")
	bad := &hostService{stubService{name: "bad"}}
	bad.relErr = relErr
	dup := &audioService{stubService{name: "audio", auto: true}}
	require.NoError(t, reg.Register(dup))

	res := Bootstrap(reg, []Candidate{
		{Name: "bad", Service: bad, AutoStart: false, Release: bad.Release},
		{Name: "audio", Service: &audioService{}, AutoStart: true},
	})

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, relErr)
	assert.ErrorIs(t, res.Err, services.ErrDuplicateRegistration)
	assert.Empty(t, res.Registered)

	// The pre-registered instance was still started.
	assert.Equal(t, 1, dup.started)
}

func TestTeardown(t *testing.T) {
	t.Run("stop then clear", func(t *testing.T) {
		reg := services.NewRegistry()
		svc := &audioService{stubService{auto: true}}
		Bootstrap(reg, []Candidate{{Name: "audio", Service: svc, AutoStart: true}})

		require.NoError(t, Teardown(reg, true))
		assert.Equal(t, 1, svc.stopped)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("clear only", func(t *testing.T) {
		reg := services.NewRegistry()
		svc := &audioService{stubService{auto: true}}
		Bootstrap(reg, []Candidate{{Name: "audio", Service: svc, AutoStart: true}})

		require.NoError(t, Teardown(reg, false))
		assert.Equal(t, 0, svc.stopped)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("already stopped reports violation", func(t *testing.T) {
		reg := services.NewRegistry()
		svc := &audioService{}
		require.NoError(t, reg.Register(svc))
		require.NoError(t, reg.Stop(svc))

		err := Teardown(reg, true)
		assert.ErrorIs(t, err, services.ErrAlreadyStopped)
		assert.Equal(t, 0, reg.Len())
	})
}

func TestReconcile(t *testing.T) {
	reg := services.NewRegistry()
	audio := &audioService{stubService{name: "audio"}}
	input := &inputService{stubService{name: "input"}}
	save := &saveService{stubService{name: "save"}}
	require.NoError(t, reg.Register(audio))
	require.NoError(t, reg.Register(input))
	require.NoError(t, reg.Register(save))
	require.NoError(t, reg.Start(audio))
	require.NoError(t, reg.Start(input))

	require.NoError(t, Reconcile(reg, Overrides{
		"audio": config.ServiceConfig{Paused: true},
		"save":  config.ServiceConfig{Paused: true},
	}))

	st, _ := reg.StatusByName("audio")
	assert.Equal(t, services.StatePaused, st.State)
	st, _ = reg.StatusByName("input")
	assert.Equal(t, services.StateRunning, st.State)
	// Never started: left alone, no violation.
	st, _ = reg.StatusByName("save")
	assert.Equal(t, services.StateUnstarted, st.State)
	assert.Empty(t, save.paused)

	// Idempotent.
	require.NoError(t, Reconcile(reg, Overrides{"audio": {Paused: true}}))
	assert.Equal(t, []bool{true}, audio.paused)

	// Dropping the override resumes.
	require.NoError(t, Reconcile(reg, nil))
	st, _ = reg.StatusByName("audio")
	assert.Equal(t, services.StateRunning, st.State)
	assert.Equal(t, []bool{true, false}, audio.paused)
}

func TestReconcile_CatalogName(t *testing.T) {
	// The catalog key differs from the service's display name.
	c := NewCatalog()
	c.Add("mixer", func(Env) (services.Service, error) {
		return &audioService{stubService{name: "audio-mixer", auto: true}}, nil
	})
	cands, err := c.Candidates(nil, Deps{})
	require.NoError(t, err)

	reg := services.NewRegistry()
	res := Bootstrap(reg, cands)
	require.NoError(t, res.Err)

	st, ok := reg.StatusByName("audio-mixer")
	require.True(t, ok)
	assert.Equal(t, "mixer", st.CatalogName)

	require.NoError(t, Reconcile(reg, Overrides{"mixer": {Paused: true}}))
	st, _ = reg.StatusByName("audio-mixer")
	assert.Equal(t, services.StatePaused, st.State)

	// The display name is not an override key for catalog services.
	require.NoError(t, Reconcile(reg, Overrides{"audio-mixer": {Paused: true}}))
	st, _ = reg.StatusByName("audio-mixer")
	assert.Equal(t, services.StateRunning, st.State)
}

func TestCandidates_UnknownOverride(t *testing.T) {
	tl := logging.NewTestLogger()
	c, _ := testCatalog()

	_, err := c.Candidates(Overrides{
		"audio": {Paused: true},
		"mixer": {Paused: true},
	}, Deps{Logger: tl.Underlying()})
	require.NoError(t, err)

	warned := tl.FilterMessage("config override matches no catalog service").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "mixer", warned[0].ContextMap()["service"])
}
