package balance_test

import (
	"testing"

	balance "github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func player(id string, f, m, d float64) model.Player {
	return model.Player{ID: id, Ratings: model.Ratings{"forward": f, "midfielder": m, "defender": d}}
}

func TestScorer_Score(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		s := balance.New()

		Convey("When scoring an empty team", func() {
			Convey("Then the balance is 0", func() {
				So(s.Score(nil), ShouldEqual, 0)
				So(s.Score(model.Team{}), ShouldEqual, 0)
			})
		})

		Convey("When scoring an uneven team", func() {
			team := model.Team{player("a", 10, 0, 0), player("d", 5, 5, 5)}

			Convey("Then the score is the spread of category sums", func() {
				So(s.Score(team), ShouldEqual, 10)
				So(s.Aggregates(team), ShouldResemble, map[string]float64{"forward": 15, "midfielder": 5, "defender": 5})
			})

			Convey("And scoring twice yields the same value", func() {
				So(s.Score(team), ShouldEqual, s.Score(team))
			})
		})

		Convey("When all aggregates are equal", func() {
			team := model.Team{player("a", 10, 0, 0), player("b", 0, 10, 0), player("c", 0, 0, 10)}

			Convey("Then the score is exactly 0", func() {
				So(s.Score(team), ShouldEqual, 0)
			})
		})

		Convey("When totalling a partition", func() {
			p := model.Partition{
				{player("a", 10, 0, 0), player("b", 0, 10, 0)},
				{player("c", 0, 0, 10), player("d", 5, 5, 5)},
			}

			Convey("Then team scores are summed and are never negative", func() {
				So(s.Score(p[0]), ShouldEqual, 10)
				So(s.Score(p[1]), ShouldEqual, 10)
				So(s.Total(p), ShouldEqual, 20)
			})
		})
	})
}

func TestScorer_Violates(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		s := balance.New()
		a := player("A", 10, 0, 0)
		b := player("B", 0, 10, 0)
		c := player("C", 0, 0, 10)
		d := player("D", 5, 5, 5)
		e := player("E", 10, 0, 0)

		Convey("Then two max-rated players in the same category violate", func() {
			So(s.Violates(model.Team{a, e}), ShouldBeTrue)
			So(s.Valid(model.Partition{{a, e}, {b}}), ShouldBeFalse)
		})

		Convey("Then max-rated players in different categories are valid", func() {
			So(s.Violates(model.Team{a, b}), ShouldBeFalse)
			So(s.Violates(model.Team{a, b, c, d}), ShouldBeFalse)
			So(s.Valid(model.Partition{{a, b}, {c, d}}), ShouldBeTrue)
		})

		Convey("Then a single max-rated player never violates", func() {
			So(s.Violates(model.Team{a}), ShouldBeFalse)
			So(s.Violates(nil), ShouldBeFalse)
		})
	})

	Convey("Given a custom sentinel", t, func() {
		s := balance.New(balance.WithMaxRating(5))

		Convey("Then the sentinel is used for collisions", func() {
			So(s.MaxRating(), ShouldEqual, 5)
			So(s.Violates(model.Team{player("x", 5, 0, 0), player("y", 5, 1, 1)}), ShouldBeTrue)
			So(s.Violates(model.Team{player("x", 10, 0, 0), player("y", 10, 1, 1)}), ShouldBeFalse)
		})
	})
}

func TestScorer_Options(t *testing.T) {
	Convey("Given category options", t, func() {
		Convey("When names need cleaning", func() {
			s := balance.New(balance.WithCategories(" Attack ", "", "defense", "attack"))

			Convey("Then they are lower-cased and deduplicated in order", func() {
				So(s.Categories(), ShouldResemble, []string{"attack", "defense"})
			})
		})

		Convey("When the list is empty", func() {
			s := balance.New(balance.WithCategories(), balance.WithMaxRating(-1))

			Convey("Then defaults are kept", func() {
				So(s.Categories(), ShouldResemble, balance.DefaultCategories())
				So(s.MaxRating(), ShouldEqual, balance.DefaultMaxRating)
			})
		})
	})
}

func TestScorer_Position(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		s := balance.New()

		Convey("Then the highest rating wins", func() {
			So(s.Position(player("a", 1, 7, 3)), ShouldEqual, "midfielder")
		})

		Convey("Then ties go to the first configured category", func() {
			So(s.Position(player("d", 5, 5, 5)), ShouldEqual, "forward")
			So(s.Position(player("z", 0, 0, 0)), ShouldEqual, "forward")
			So(s.Position(player("m", 1, 4, 4)), ShouldEqual, "midfielder")
		})
	})
}
