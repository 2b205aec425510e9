package supervisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pevm-analyzer/internal/model"
)

type fakeStore struct {
	cursor *model.AnalyzerCursor
	inserts int
	updates []model.AnalyzerCursor
}

func (f *fakeStore) GetCursor(ctx context.Context, chainID int64) (*model.AnalyzerCursor, error) {
	return f.cursor, nil
}

func (f *fakeStore) InsertCursor(ctx context.Context, c model.AnalyzerCursor) error {
	f.inserts++
	cp := c
	f.cursor = &cp
	return nil
}

func (f *fakeStore) UpdateCursor(ctx context.Context, c model.AnalyzerCursor) error {
	f.updates = append(f.updates, c)
	cp := c
	f.cursor = &cp
	return nil
}

// The remaining Store methods are unused by the supervisor and are
// stubbed out only to satisfy the interface.
func (f *fakeStore) InsertBlock(ctx context.Context, _ model.Block) error { return nil }
func (f *fakeStore) InsertTransaction(ctx context.Context, _ model.Transaction) error { return nil }
func (f *fakeStore) GetTransactionsByBlock(ctx context.Context, _ uint64) ([]model.Transaction, error) {
	return nil, nil
}
func (f *fakeStore) InsertDependencyEdge(ctx context.Context, _ model.DependencyEdge) error { return nil }
func (f *fakeStore) DeleteDependencyEdgesByBlock(ctx context.Context, _ uint64) error        { return nil }
func (f *fakeStore) GetDependencyEdgesByBlock(ctx context.Context, _ uint64) ([]model.DependencyEdge, error) {
	return nil, nil
}
func (f *fakeStore) Close() {}

type fakeTip struct{ tip uint64 }

func (f *fakeTip) LatestBlockNumber(ctx context.Context) (uint64, error) { return f.tip, nil }

type fakeRunner struct {
	ran    []uint64
	failAt uint64
}

func (f *fakeRunner) Run(ctx context.Context, n uint64, tip uint64) error {
	if f.failAt != 0 && n == f.failAt {
		return errors.New("boom")
	}
	f.ran = append(f.ran, n)
	return nil
}

func TestSupervisor_BootstrapsFreshCursor(t *testing.T) {
	fs := &fakeStore{}
	runner := &fakeRunner{failAt: 103}
	s := &Supervisor{Store: fs, Tip: &fakeTip{tip: 103}, Pipeline: runner, ChainID: 1, StartBlock: 100}

	err := s.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1, fs.inserts)
	assert.Equal(t, []uint64{100, 101, 102}, runner.ran)
}

func TestSupervisor_ResumesFromCursor(t *testing.T) {
	fs := &fakeStore{cursor: &model.AnalyzerCursor{ChainID: 1, StartBlock: 50, LatestAnalyzedBlock: 99}}
	runner := &fakeRunner{failAt: 101}
	s := &Supervisor{Store: fs, Tip: &fakeTip{tip: 200}, Pipeline: runner, ChainID: 1, StartBlock: 50}

	err := s.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, []uint64{100}, runner.ran)
	assert.Equal(t, 0, fs.inserts)
}

func TestSupervisor_CancelledContextStopsCleanly(t *testing.T) {
	fs := &fakeStore{cursor: &model.AnalyzerCursor{ChainID: 1, StartBlock: 1, LatestAnalyzedBlock: 0}}
	runner := &fakeRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Supervisor{Store: fs, Tip: &fakeTip{tip: 10}, Pipeline: runner, ChainID: 1, StartBlock: 1}
	err := s.Run(ctx)

	require.NoError(t, err)
	assert.Empty(t, fs.updates)
}
