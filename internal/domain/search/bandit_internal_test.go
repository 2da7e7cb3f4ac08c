package search

import (
	"math"
	"testing"

	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func bandPlayers() []model.Player {
	return []model.Player{
		{ID: "a", Ratings: model.Ratings{"forward": 9, "midfielder": 2, "defender": 1}},
		{ID: "b", Ratings: model.Ratings{"forward": 3, "midfielder": 8, "defender": 2}},
		{ID: "c", Ratings: model.Ratings{"forward": 1, "midfielder": 4, "defender": 7}},
		{ID: "d", Ratings: model.Ratings{"forward": 5, "midfielder": 5, "defender": 5}},
		{ID: "e", Ratings: model.Ratings{"forward": 6, "midfielder": 1, "defender": 3}},
		{ID: "f", Ratings: model.Ratings{"forward": 2, "midfielder": 6, "defender": 6}},
	}
}

func TestUCBExploresUntriedSwapsFirst(t *testing.T) {
	Convey("Given an initialized UCB search", t, func() {
		u, err := NewUCB(bandPlayers(), balance.New(), NewConfig(WithIterations(50)), NewSource(21))
		So(err, ShouldBeNil)
		u.Initialize()

		Convey("Then every candidate scores +Inf before its first trial", func() {
			for _, sw := range u.candidates() {
				So(math.IsInf(u.Score(sw), 1), ShouldBeTrue)
			}
		})

		Convey("When stepping", func() {
			for i := 0; i < 30; i++ {
				untried := false
				for _, sw := range u.candidates() {
					if u.Trials(sw) == 0 {
						untried = true
					}
				}
				sw, ok := u.ProposeSwap()
				So(ok, ShouldBeTrue)
				if untried {
					So(u.Trials(sw), ShouldEqual, 0)
				}
				So(u.Step(), ShouldBeTrue)
			}

			Convey("Then trials are counted per selected swap", func() {
				total := 0
				for _, a := range u.arms {
					total += a.trials
				}
				So(total, ShouldEqual, 30)
				So(u.trials, ShouldEqual, 30)
			})
		})

		Convey("When a tried swap is scored", func() {
			sw, _ := u.ProposeSwap()
			out := u.try(sw)
			u.arms[sw].trials++
			u.arms[sw].reward += -out.balance
			u.trials++

			Convey("Then its score is finite", func() {
				So(math.IsInf(u.Score(sw), 0), ShouldBeFalse)
			})
		})
	})
}

func TestThompsonTallies(t *testing.T) {
	Convey("Given a Thompson search", t, func() {
		th, err := NewThompson(bandPlayers(), balance.New(), NewConfig(WithIterations(40), WithNumTeams(3)), NewSource(8))
		So(err, ShouldBeNil)

		Convey("When it runs", func() {
			th.Run()

			Convey("Then successes equal accepted swaps and every step is tallied", func() {
				successes, failures := 0, 0
				for _, c := range th.tallies {
					successes += c.successes
					failures += c.failures
				}
				So(successes, ShouldEqual, th.Stats().Accepted)
				So(successes+failures, ShouldEqual, 40)
			})
		})
	})
}

func TestSwapper(t *testing.T) {
	Convey("Given a swapper over a fixed partition", t, func() {
		s, err := newSwapper(bandPlayers(), balance.New(), NewConfig(), NewSource(1))
		So(err, ShouldBeNil)
		players := bandPlayers()
		s.current = model.Partition{{players[0], players[1], players[2]}, {players[3], players[4], players[5]}}
		s.best = s.current.Clone()
		s.bestBalance = s.scorer.Total(s.current)

		Convey("When probing a swap", func() {
			before := s.current.Clone()
			_, ok := s.probe(Swap{From: 0, To: 1, A: "a", B: "d"})

			Convey("Then the working partition is untouched", func() {
				So(ok, ShouldBeTrue)
				So(s.current, ShouldResemble, before)
			})
		})

		Convey("When a swap names a player not on that team", func() {
			out := s.try(Swap{From: 0, To: 1, A: "d", B: "a"})

			Convey("Then it is rejected without changes", func() {
				So(out.valid, ShouldBeFalse)
				So(s.stats.Rejected, ShouldEqual, 1)
				So(s.current[0].IDs(), ShouldResemble, []string{"a", "b", "c"})
			})
		})

		Convey("When random swaps are drawn", func() {
			for i := 0; i < 50; i++ {
				sw, ok := s.randomSwap()
				So(ok, ShouldBeTrue)
				So(sw.From, ShouldBeLessThan, sw.To)
				So(s.current[sw.From].Index(sw.A), ShouldBeGreaterThanOrEqualTo, 0)
				So(s.current[sw.To].Index(sw.B), ShouldBeGreaterThanOrEqualTo, 0)
			}
		})

		Convey("When dealing round-robin", func() {
			p := deal(players, 4, NewSource(2))

			Convey("Then team sizes differ by at most one", func() {
				So(p.Sizes(), ShouldResemble, []int{2, 2, 1, 1})
			})
		})
	})
}

func TestRepair(t *testing.T) {
	Convey("Given a lopsided partition", t, func() {
		players := bandPlayers()
		p := model.Partition{model.Team(players[:5]).Clone(), {players[5]}, {}}

		Convey("When repaired", func() {
			repair(p)

			Convey("Then sizes differ by at most one and nobody is lost", func() {
				So(p.Players(), ShouldEqual, 6)
				So(p.Sizes(), ShouldResemble, []int{2, 2, 2})
			})
		})
	})
}

func TestEpsilonGreedyProposals(t *testing.T) {
	Convey("Given pure exploitation over a fixed valid partition", t, func() {
		scorer := balance.New()
		g, err := NewEpsilonGreedy(bandPlayers(), scorer, NewConfig(WithEpsilon(0)), NewSource(4))
		So(err, ShouldBeNil)
		g.Initialize()
		players := bandPlayers()
		g.current = model.Partition{{players[0], players[1], players[2]}, {players[3], players[4], players[5]}}

		Convey("When a swap is proposed", func() {
			before := g.current.Clone()
			sw, ok := g.ProposeSwap()

			Convey("Then it is the first cross-team pair with the lowest resulting total", func() {
				var (
					want     Swap
					wantCost = math.Inf(1)
				)
				for _, a := range before[0] {
					for _, b := range before[1] {
						trial := before.Clone()
						trial[0][trial[0].Index(a.ID)], trial[1][trial[1].Index(b.ID)] = b, a
						if !scorer.Valid(trial) {
							continue
						}
						if cost := scorer.Total(trial); cost < wantCost {
							want, wantCost = Swap{From: 0, To: 1, A: a.ID, B: b.ID}, cost
						}
					}
				}
				So(ok, ShouldBeTrue)
				So(sw, ShouldResemble, want)
				So(g.current, ShouldResemble, before)
			})
		})
	})

	Convey("Given a partition where every swap breaks the max-rating constraint", t, func() {
		scorer := balance.New()
		players := []model.Player{
			{ID: "a", Ratings: model.Ratings{"forward": 10, "midfielder": 1, "defender": 1}},
			{ID: "b", Ratings: model.Ratings{"forward": 1, "midfielder": 10, "defender": 1}},
			{ID: "c", Ratings: model.Ratings{"forward": 10, "midfielder": 10, "defender": 1}},
			{ID: "d", Ratings: model.Ratings{"forward": 0, "midfielder": 0, "defender": 0}},
		}
		g, err := NewEpsilonGreedy(players, scorer, NewConfig(WithEpsilon(0)), NewSource(9))
		So(err, ShouldBeNil)
		g.Initialize()
		g.current = model.Partition{{players[0], players[1]}, {players[2], players[3]}}
		g.best = g.current.Clone()
		g.bestBalance = scorer.Total(g.current)
		So(scorer.Valid(g.current), ShouldBeTrue)

		for _, sw := range g.candidates() {
			_, valid := g.probe(sw)
			So(valid, ShouldBeFalse)
		}

		Convey("When swaps are proposed", func() {
			seen := map[Swap]bool{}
			for i := 0; i < 40; i++ {
				sw, ok := g.ProposeSwap()
				So(ok, ShouldBeTrue)
				So(sw.From, ShouldEqual, 0)
				So(sw.To, ShouldEqual, 1)
				So(g.current[0].Index(sw.A), ShouldBeGreaterThanOrEqualTo, 0)
				So(g.current[1].Index(sw.B), ShouldBeGreaterThanOrEqualTo, 0)
				seen[sw] = true
			}

			Convey("Then they fall back to random pairs", func() {
				So(len(seen), ShouldBeGreaterThan, 1)
			})
		})

		Convey("When one of them is tried", func() {
			sw, _ := g.ProposeSwap()
			g.try(sw)

			Convey("Then it is counted as a violation and reverted", func() {
				So(g.Stats().Violations, ShouldEqual, 1)
				So(g.current[0].IDs(), ShouldResemble, []string{"a", "b"})
				So(g.current[1].IDs(), ShouldResemble, []string{"c", "d"})
			})
		})
	})
}

func TestGeneticMutation(t *testing.T) {
	Convey("Given a fixed two-team individual", t, func() {
		players := bandPlayers()
		individual := func() model.Partition {
			return model.Partition{{players[0], players[1], players[2]}, {players[3], players[4], players[5]}}
		}

		Convey("When the mutation rate is 1", func() {
			g, err := NewGenetic(players, balance.New(), NewConfig(WithMutationRate(1)), NewSource(12))
			So(err, ShouldBeNil)

			Convey("Then every mutation moves exactly one player each way", func() {
				for i := 0; i < 20; i++ {
					ind := individual()
					g.mutate(ind)

					So(ind.Sizes(), ShouldResemble, []int{3, 3})
					moved := 0
					for _, p := range ind[0] {
						if individual()[1].Index(p.ID) >= 0 {
							moved++
						}
					}
					So(moved, ShouldEqual, 1)
				}
			})
		})

		Convey("When the mutation rate is 0", func() {
			g, err := NewGenetic(players, balance.New(), NewConfig(WithMutationRate(0)), NewSource(12))
			So(err, ShouldBeNil)
			ind := individual()
			g.mutate(ind)

			Convey("Then the individual is unchanged", func() {
				So(ind, ShouldResemble, individual())
			})
		})
	})
}
