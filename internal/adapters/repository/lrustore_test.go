package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(id string, status model.JobStatus) model.Record {
	return model.Record{ID: id, Status: status, Strategy: "ucb"}
}

func TestLRUStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := repository.NewLRUStore()

		Convey("Then lookups fail with ErrNotFound", func() {
			_, err := store.Get(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 0)
		})

		Convey("Then a record without id is rejected", func() {
			So(errors.Is(store.Put(ctx, model.Record{}), repository.ErrInvalidID), ShouldBeTrue)
		})

		Convey("When a record is written and updated", func() {
			So(store.Put(ctx, rec("job-1", model.JobPending)), ShouldBeNil)
			So(store.Put(ctx, rec("job-1", model.JobDone)), ShouldBeNil)

			Convey("Then the latest version is returned", func() {
				got, err := store.Get(ctx, "job-1")
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.JobDone)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When listing", func() {
			for i := 1; i <= 4; i++ {
				So(store.Put(ctx, rec(fmt.Sprintf("job-%d", i), model.JobPending)), ShouldBeNil)
			}

			Convey("Then records come newest first and honour the limit", func() {
				all, err := store.List(ctx, 0)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 4)
				So(all[0].ID, ShouldEqual, "job-4")
				So(all[3].ID, ShouldEqual, "job-1")

				two, err := store.List(ctx, 2)
				So(err, ShouldBeNil)
				So(len(two), ShouldEqual, 2)
				So(two[1].ID, ShouldEqual, "job-3")
			})

			Convey("Then a negative limit is rejected", func() {
				_, err := store.List(ctx, -1)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})

	Convey("Given a store with capacity 2", t, func() {
		ctx := context.Background()
		var evicted []string
		store := repository.NewLRUStore(
			repository.WithCapacity(2),
			repository.WithEvictCallback(func(id string) { evicted = append(evicted, id) }),
		)

		Convey("When a third record is written", func() {
			for _, id := range []string{"a", "b", "c"} {
				So(store.Put(ctx, rec(id, model.JobDone)), ShouldBeNil)
			}

			Convey("Then the oldest one is evicted", func() {
				So(store.Count(ctx), ShouldEqual, 2)
				So(evicted, ShouldResemble, []string{"a"})
				_, err := store.Get(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestLRUStoreConcurrency(t *testing.T) {
	Convey("Given concurrent writers", t, func() {
		ctx := context.Background()
		store := repository.NewLRUStore(repository.WithCapacity(1000))
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_ = store.Put(ctx, rec(fmt.Sprintf("job-%d-%d", g, i), model.JobDone))
					_, _ = store.List(ctx, 5)
				}
			}(g)
		}
		wg.Wait()

		Convey("Then every record is retained", func() {
			So(store.Count(ctx), ShouldEqual, 400)
		})
	})
}
