package model_test

import (
	"testing"
	"time"

	"github.com/okian/edustream/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParsePresence(t *testing.T) {
	Convey("Given presence strings", t, func() {
		Convey("Then known values parse regardless of case", func() {
			p, err := model.ParsePresence(" Present ")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, model.Present)

			p, err = model.ParsePresence("ABSENT")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, model.Absent)
		})

		Convey("Then unknown values are rejected", func() {
			_, err := model.ParsePresence("late")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown presence")
		})
	})
}

func TestRecordAccessors(t *testing.T) {
	Convey("Given queued records of both kinds", t, func() {
		att := model.AttendanceEvent(model.AttendanceRecord{
			ID: "a-1", StudentID: "s-1", Date: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), Presence: model.Present,
		})
		asg := model.AssignmentEvent(model.AssignmentRecord{
			ID: "a-1", StudentID: "s-2", Title: "Essay", Grade: 70,
		})

		Convey("Then ids and students come from the carried record", func() {
			So(att.ID(), ShouldEqual, "a-1")
			So(att.StudentID(), ShouldEqual, "s-1")
			So(asg.StudentID(), ShouldEqual, "s-2")
		})

		Convey("Then dedupe keys are namespaced by kind", func() {
			So(att.DedupeKey(), ShouldEqual, "attendance:a-1")
			So(asg.DedupeKey(), ShouldEqual, "assignment:a-1")
			So(att.DedupeKey(), ShouldNotEqual, asg.DedupeKey())
		})

		Convey("Then a mismatched record reports no id", func() {
			broken := model.Record{Kind: model.KindAssignment, Attendance: att.Attendance}
			So(broken.ID(), ShouldEqual, "")
			So(broken.StudentID(), ShouldEqual, "")
		})
	})
}
