package repository_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/reviewforge/internal/adapters/repository"
	"github.com/okian/reviewforge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSnapshotStore(t *testing.T) {
	Convey("Given a snapshot store in a temp dir", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "metrics.json")
		store, err := repository.NewSnapshotStore(ctx, path, 10)
		So(err, ShouldBeNil)

		Convey("Then it persists the initial idle snapshot on creation", func() {
			data, rerr := os.ReadFile(path)
			So(rerr, ShouldBeNil)

			var snap model.MetricsSnapshot
			So(json.Unmarshal(data, &snap), ShouldBeNil)
			So(snap.Status, ShouldEqual, model.StatusIdle)
			So(snap.TotalEpochs, ShouldEqual, 10)
		})

		Convey("When updating the snapshot", func() {
			err := store.Update(ctx, func(m *model.MetricsSnapshot) {
				m.Status = model.StatusTraining
				m.Epoch = 4
				m.History.Loss = append(m.History.Loss, 2.5)
				m.History.Reward = append(m.History.Reward, 0.4)
				m.History.Epochs = append(m.History.Epochs, 4)
			})
			So(err, ShouldBeNil)

			Convey("Then the change is visible in memory and on disk", func() {
				snap := store.Snapshot(ctx)
				So(snap.Status, ShouldEqual, model.StatusTraining)
				So(snap.Epoch, ShouldEqual, 4)

				data, rerr := os.ReadFile(path)
				So(rerr, ShouldBeNil)
				var onDisk model.MetricsSnapshot
				So(json.Unmarshal(data, &onDisk), ShouldBeNil)
				So(onDisk, ShouldResemble, snap)
			})

			Convey("And no temp files are left behind", func() {
				entries, rerr := os.ReadDir(filepath.Dir(path))
				So(rerr, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})

			Convey("And a new store restores the persisted state", func() {
				restored, rerr := repository.NewSnapshotStore(ctx, path, 10)
				So(rerr, ShouldBeNil)
				So(restored.Snapshot(ctx), ShouldResemble, store.Snapshot(ctx))
			})
		})

		Convey("When mutating a returned snapshot copy", func() {
			snap := store.Snapshot(ctx)
			snap.History.Loss = append(snap.History.Loss, 99)
			snap.Status = model.StatusCompleted

			Convey("Then the store is unaffected", func() {
				So(store.Snapshot(ctx).Status, ShouldEqual, model.StatusIdle)
				So(store.Snapshot(ctx).History.Loss, ShouldBeEmpty)
			})
		})

		Convey("When claiming a training run", func() {
			ok, serr := store.TryStart(ctx)
			So(serr, ShouldBeNil)
			So(ok, ShouldBeTrue)

			Convey("Then the snapshot is reset to starting", func() {
				snap := store.Snapshot(ctx)
				So(snap.Status, ShouldEqual, model.StatusStarting)
				So(snap.Epoch, ShouldEqual, 0)
				So(snap.History.Loss, ShouldBeEmpty)
			})

			Convey("And a second claim is refused while running", func() {
				ok, serr := store.TryStart(ctx)
				So(serr, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("And a claim succeeds again after completion", func() {
				So(store.Update(ctx, func(m *model.MetricsSnapshot) {
					m.Status = model.StatusCompleted
				}), ShouldBeNil)

				ok, serr := store.TryStart(ctx)
				So(serr, ShouldBeNil)
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When many goroutines race to claim a run", func() {
			const claimers = 16
			var wg sync.WaitGroup
			wins := make(chan bool, claimers)
			for i := 0; i < claimers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := store.TryStart(ctx)
					if err == nil && ok {
						wins <- true
					}
				}()
			}
			wg.Wait()
			close(wins)

			Convey("Then exactly one claim wins", func() {
				So(len(wins), ShouldEqual, 1)
			})
		})

		Convey("When the snapshot file is corrupt", func() {
			So(os.WriteFile(path, []byte("{{{"), 0o644), ShouldBeNil)
			fresh, rerr := repository.NewSnapshotStore(ctx, path, 10)
			So(rerr, ShouldBeNil)

			Convey("Then the store starts from the initial snapshot", func() {
				So(fresh.Snapshot(ctx).Status, ShouldEqual, model.StatusIdle)
			})
		})
	})
}
