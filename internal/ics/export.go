package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "orarend/internal/log"
	"orarend/internal/model"
)

const (
	productID = "-//orarend//course timetable//HU"
	uidDomain = "orarend"
)

// Export materializes courses with Expand and serializes every occurrence as
// its own VEVENT (no RRULE), with times in UTC. stamp is written as DTSTAMP.
func Export(courses []model.Course, cfg ExpandConfig, name string, stamp time.Time) (string, error) {
	res, err := Expand(courses, cfg)
	if err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, occ := range res.Occurrences {
		ev := cal.AddEvent(occ.InstanceKey + "@" + uidDomain)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(occ.Start)
		ev.SetEndAt(occ.End)
		ev.SetSummary(occ.Summary)
		if occ.Location != "" {
			ev.SetLocation(occ.Location)
		}
		if occ.Description != "" {
			ev.SetDescription(occ.Description)
		}
	}

	appLog.Info("ics export completed",
		"courses", len(courses),
		"events", len(res.Occurrences),
		"truncated_slots", len(res.TruncatedSlots),
	)
	return cal.Serialize(), nil
}
