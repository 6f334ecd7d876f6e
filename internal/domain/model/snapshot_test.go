package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/reviewforge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsSnapshot(t *testing.T) {
	Convey("Given a populated metrics snapshot", t, func() {
		snap := model.MetricsSnapshot{
			Status:      model.StatusTraining,
			Epoch:       3,
			TotalEpochs: 10,
			Loss:        2.212,
			Reward:      0.4611,
			Samples:     3,
			History: model.History{
				Loss:   []float64{2.604, 2.408, 2.212},
				Reward: []float64{0.3511, 0.4061, 0.4611},
				Epochs: []int{1, 2, 3},
			},
			CurrentStep:    "Epoch 3: update_weights",
			StepsCompleted: []string{"load_data", "load_model", "generate", "compute_reward", "update_weights"},
		}

		Convey("When serialized and deserialized", func() {
			data, err := json.Marshal(snap)
			So(err, ShouldBeNil)

			var got model.MetricsSnapshot
			So(json.Unmarshal(data, &got), ShouldBeNil)

			Convey("Then every field round-trips identically", func() {
				So(got, ShouldResemble, snap)
			})
		})

		Convey("When serialized", func() {
			data, err := json.Marshal(snap)
			So(err, ShouldBeNil)

			Convey("Then the wire field names match the metrics contract", func() {
				var raw map[string]any
				So(json.Unmarshal(data, &raw), ShouldBeNil)
				for _, key := range []string{
					"status", "epoch", "total_epochs", "loss", "reward",
					"samples", "history", "current_step", "steps_completed",
				} {
					So(raw, ShouldContainKey, key)
				}
				hist, ok := raw["history"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(hist, ShouldContainKey, "loss")
				So(hist, ShouldContainKey, "reward")
				So(hist, ShouldContainKey, "epochs")
			})
		})

		Convey("When cloned", func() {
			clone := snap.Clone()

			Convey("Then mutating the clone leaves the original intact", func() {
				clone.History.Loss[0] = 99
				clone.StepsCompleted[0] = "other"
				So(snap.History.Loss[0], ShouldEqual, 2.604)
				So(snap.StepsCompleted[0], ShouldEqual, "load_data")
			})
		})

		Convey("When reset for a new run", func() {
			snap.Reset()

			Convey("Then progress is cleared but the schedule survives", func() {
				So(snap.Status, ShouldEqual, model.StatusStarting)
				So(snap.Epoch, ShouldEqual, 0)
				So(snap.Loss, ShouldEqual, 0)
				So(snap.Reward, ShouldEqual, 0)
				So(snap.History.Loss, ShouldBeEmpty)
				So(snap.StepsCompleted, ShouldBeEmpty)
				So(snap.TotalEpochs, ShouldEqual, 10)
			})
		})
	})

	Convey("Given the training statuses", t, func() {
		Convey("Then only in-flight statuses report running", func() {
			So(model.StatusIdle.Running(), ShouldBeFalse)
			So(model.StatusCompleted.Running(), ShouldBeFalse)
			So(model.StatusStarting.Running(), ShouldBeTrue)
			So(model.StatusInitializing.Running(), ShouldBeTrue)
			So(model.StatusTraining.Running(), ShouldBeTrue)
		})
	})
}
