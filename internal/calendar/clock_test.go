package calendar_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/helpdesk-service/internal/calendar"
)

var _ = Describe("ParseClock", func() {
	DescribeTable("valid values",
		func(input string, expected calendar.Clock) {
			c, err := calendar.ParseClock(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(Equal(expected))
		},
		Entry("midnight", "00:00", calendar.Clock(0)),
		Entry("morning", "09:00", calendar.Clock(540)),
		Entry("single digit hour", "9:30", calendar.Clock(570)),
		Entry("end of day", "24:00", calendar.EndOfDay),
	)

	DescribeTable("invalid values",
		func(input string) {
			_, err := calendar.ParseClock(input)
			Expect(err).To(MatchError(calendar.ErrInvalidClock))
		},
		Entry("empty", ""),
		Entry("no separator", "0900"),
		Entry("minutes out of range", "09:60"),
		Entry("past end of day", "24:01"),
		Entry("single digit minutes", "09:5"),
		Entry("letters", "ab:cd"),
	)

	It("formats back to HH:MM", func() {
		Expect(calendar.MustParseClock("07:05").String()).To(Equal("07:05"))
	})
})

var _ = Describe("Date", func() {
	It("walks across month and year boundaries", func() {
		d := calendar.Date{Year: 2025, Month: time.December, Day: 31}
		Expect(d.AddDays(1)).To(Equal(calendar.Date{Year: 2026, Month: time.January, Day: 1}))
		Expect(d.AddDays(-31)).To(Equal(calendar.Date{Year: 2025, Month: time.November, Day: 30}))
	})

	It("parses ISO dates", func() {
		d, err := calendar.ParseDate("2025-07-07")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Weekday()).To(Equal(time.Monday))
		Expect(d.String()).To(Equal("2025-07-07"))
	})
})
