package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liaowuw/webweek8mvc/models"
)

func insertPerson(t *testing.T, repo *PersonRepository, name string, age int, sex *uint) models.Person {
	t.Helper()
	p := models.Person{Name: name, Age: age, Email: strings.ToLower(name) + "@x.com", SexID: sex}
	id, err := repo.Insert(context.Background(), &p)
	require.NoError(t, err)
	require.NotZero(t, id)
	return p
}

func ids(people []models.Person) []uint {
	out := make([]uint, len(people))
	for i, p := range people {
		out[i] = p.ID
	}
	return out
}

func TestPersonRepository_Scenario(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	alice := models.Person{Name: "Alice", Age: 30, Email: "a@x.com", SexID: sexID(1)}
	id, err := repo.Insert(ctx, &alice)
	require.NoError(t, err)

	page, err := repo.Page(ctx, PageRequest{Page: 0, Size: 10, SortBy: "name", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Alice", page.Items[0].Name)
	require.NotNil(t, page.Items[0].Sex)
	assert.Equal(t, "Female", page.Items[0].Sex.Name)

	updated, err := repo.Update(ctx, id, models.Person{Name: "Alicia", Age: 31, Email: "alicia@x.com", SexID: sexID(1)})
	require.NoError(t, err)
	assert.Equal(t, id, updated)

	got, err := repo.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.Name)

	res := repo.Delete(ctx, id)
	assert.Equal(t, DeleteRemoved, res.Outcome)

	_, err = repo.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersonRepository_InsertThenLookup(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	p := models.Person{ID: 999, Name: "Bob", Age: 41, Email: "bob@x.com", SexID: sexID(2)}
	id, err := repo.Insert(ctx, &p)
	require.NoError(t, err)
	assert.NotEqual(t, uint(999), id, "caller supplied ids are ignored")

	got, err := repo.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)
	assert.Equal(t, 41, got.Age)
	assert.Equal(t, "bob@x.com", got.Email)
	require.NotNil(t, got.SexID)
	assert.Equal(t, uint(2), *got.SexID)
	assert.Equal(t, "Male", got.SexName())
}

func TestPersonRepository_ConcurrentInsertsGetDistinctIDs(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	idsCh := make(chan uint, n)
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := models.Person{Name: fmt.Sprintf("Person %02d", i), Age: i, Email: "p@x.com", SexID: sexID(3)}
			id, err := repo.Insert(ctx, &p)
			if err != nil {
				errCh <- err
				return
			}
			idsCh <- id
		}(i)
	}
	wg.Wait()
	close(idsCh)
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	seen := map[uint]bool{}
	for id := range idsCh {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true

		got, err := repo.Lookup(ctx, id)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got.Name, "Person "))
	}
	assert.Len(t, seen, n)
}

func TestPersonRepository_PagesConcatenateToFullResult(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	names := []string{"Alice", "bob", "Carla", "dave", "Eve", "Frank", "gina", "Hal", "Ivan", "judy",
		"Karl", "Lena", "mallory", "Nina", "Oscar", "peggy", "Quinn", "Rita", "sybil", "Trent", "Uma", "Victor", "walter"}
	var all []models.Person
	for i, name := range names {
		all = append(all, insertPerson(t, repo, name, 20+i%4, sexID(uint(i%3+1))))
	}

	tests := []struct {
		sortBy string
		order  string
		filter string
		want   func() []uint
	}{
		{"name", "asc", "", func() []uint {
			people := append([]models.Person(nil), all...)
			sort.Slice(people, func(i, j int) bool { return people[i].Name < people[j].Name })
			return ids(people)
		}},
		{"age", "desc", "a", func() []uint {
			var people []models.Person
			for _, p := range all {
				if strings.Contains(strings.ToLower(p.Name), "a") {
					people = append(people, p)
				}
			}
			sort.SliceStable(people, func(i, j int) bool {
				if people[i].Age != people[j].Age {
					return people[i].Age > people[j].Age
				}
				return people[i].ID < people[j].ID
			})
			return ids(people)
		}},
		{"id", "asc", "", func() []uint { return ids(all) }},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy+"_"+tt.order+"_"+tt.filter, func(t *testing.T) {
			for _, size := range []int{1, 4, 5, 50} {
				var got []uint
				var total int64
				for pageNo := 0; ; pageNo++ {
					page, err := repo.Page(ctx, PageRequest{Page: pageNo, Size: size, SortBy: tt.sortBy, Order: tt.order, Filter: tt.filter})
					require.NoError(t, err)
					require.LessOrEqual(t, len(page.Items), size)
					total = page.Total
					got = append(got, ids(page.Items)...)
					if !page.HasNext() {
						break
					}
				}
				want := tt.want()
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("size %d: concatenated pages mismatch (-want +got):\n%s", size, diff)
				}
				assert.Equal(t, int64(len(want)), total)
			}
		})
	}
}

func TestPersonRepository_PageFilterIsCaseInsensitive(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	insertPerson(t, repo, "Alice", 30, sexID(1))
	insertPerson(t, repo, "Bob", 25, sexID(2))
	insertPerson(t, repo, "Malik", 44, nil)

	for _, filter := range []string{"ali", "ALI", "aLi"} {
		page, err := repo.Page(ctx, PageRequest{Size: 10, SortBy: "name", Order: "asc", Filter: filter})
		require.NoError(t, err)
		var names []string
		for _, p := range page.Items {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"Alice", "Malik"}, names, "filter %q", filter)
		assert.Equal(t, int64(2), page.Total)
	}

	page, err := repo.Page(ctx, PageRequest{Size: 10, SortBy: "name", Order: "asc"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
}

func TestPersonRepository_PageFilterFoldsNonASCII(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	insertPerson(t, repo, "Émile", 40, sexID(2))
	insertPerson(t, repo, "Zoë", 22, sexID(1))
	insertPerson(t, repo, "Emma", 35, sexID(1))

	tests := []struct {
		filter string
		want   []string
	}{
		{"Émile", []string{"Émile"}},
		{"émile", []string{"Émile"}},
		{"ÉMILE", []string{"Émile"}},
		{"É", []string{"Émile"}},
		{"ë", []string{"Zoë"}},
		{"ZOË", []string{"Zoë"}},
		{"em", []string{"Emma"}},
	}
	for _, tt := range tests {
		page, err := repo.Page(ctx, PageRequest{Size: 10, SortBy: "name", Order: "asc", Filter: tt.filter})
		require.NoError(t, err)
		var names []string
		for _, p := range page.Items {
			names = append(names, p.Name)
		}
		assert.Equal(t, tt.want, names, "filter %q", tt.filter)
		assert.Equal(t, int64(len(tt.want)), page.Total, "filter %q", tt.filter)
	}
}

func TestPersonRepository_PageEdgeCases(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	insertPerson(t, repo, "Zed", 50, sexID(2))
	insertPerson(t, repo, "Amy", 20, sexID(1))

	t.Run("out of range page is empty", func(t *testing.T) {
		page, err := repo.Page(ctx, PageRequest{Page: 7, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(2), page.Total)
		assert.False(t, page.HasNext())
		assert.True(t, page.HasPrev())
		assert.Equal(t, int64(0), page.From())
	})

	t.Run("page whose offset overflows is empty", func(t *testing.T) {
		for _, req := range []PageRequest{
			{Page: math.MaxInt / 5, Size: 10},
			{Page: math.MaxInt, Size: 1},
			{Page: math.MaxInt, Size: math.MaxInt},
		} {
			page, err := repo.Page(ctx, req)
			require.NoError(t, err)
			assert.Empty(t, page.Items, "page %d size %d", req.Page, req.Size)
			assert.Equal(t, int64(2), page.Total)
			assert.False(t, page.HasNext())
			assert.Equal(t, int64(0), page.From())
			assert.Equal(t, int64(0), page.To())
		}
	})

	t.Run("negative page and zero size are normalized", func(t *testing.T) {
		page, err := repo.Page(ctx, PageRequest{Page: -3, Size: 0})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Index)
		assert.Equal(t, 10, page.Size)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int64(1), page.From())
		assert.Equal(t, int64(2), page.To())
	})

	t.Run("unknown sort column falls back to name", func(t *testing.T) {
		page, err := repo.Page(ctx, PageRequest{Size: 10, SortBy: "name; DROP TABLE person", Order: "sideways"})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Amy", page.Items[0].Name)
	})

	t.Run("sort by sex name", func(t *testing.T) {
		page, err := repo.Page(ctx, PageRequest{Size: 10, SortBy: "sex.name", Order: "desc"})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Zed", page.Items[0].Name)
		assert.Equal(t, "Male", page.Items[0].SexName())
	})
}

func TestPersonRepository_UpdateOverwritesAllFields(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	p := insertPerson(t, repo, "Carol", 52, sexID(1))

	_, err := repo.Update(ctx, p.ID, models.Person{Name: "Carl", Age: 0, Email: "carl@x.com", SexID: nil})
	require.NoError(t, err)

	got, err := repo.Lookup(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carl", got.Name)
	assert.Equal(t, 0, got.Age)
	assert.Equal(t, "carl@x.com", got.Email)
	assert.Nil(t, got.SexID)
	assert.Nil(t, got.Sex)
}

func TestPersonRepository_UpdateMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewPersonRepository(db)
	ctx := context.Background()

	_, err := repo.Update(ctx, 4242, models.Person{Name: "Ghost", Age: 1, Email: "g@x.com"})
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Person{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPersonRepository_UpdateRollsBackOnFailure(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	p := insertPerson(t, repo, "Dora", 33, sexID(1))

	// sex 99 violates the foreign key, nothing may change
	_, err := repo.Update(ctx, p.ID, models.Person{Name: "Dorothy", Age: 34, Email: "d@x.com", SexID: sexID(99)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	got, err := repo.Lookup(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dora", got.Name)
	assert.Equal(t, 33, got.Age)
}

func TestPersonRepository_Delete(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	ctx := context.Background()

	p := insertPerson(t, repo, "Erin", 28, sexID(1))

	res := repo.Delete(ctx, p.ID)
	assert.Equal(t, DeleteRemoved, res.Outcome)
	assert.Equal(t, p.ID, res.ID)
	assert.NoError(t, res.Err)

	_, err := repo.Lookup(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	res = repo.Delete(ctx, p.ID)
	assert.Equal(t, DeleteNotFound, res.Outcome)
	assert.NoError(t, res.Err)
}

func TestPersonRepository_DeleteFailureIsReported(t *testing.T) {
	repo := NewPersonRepository(newTestDB(t))
	p := insertPerson(t, repo, "Faythe", 39, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := repo.Delete(ctx, p.ID)
	assert.Equal(t, DeleteFailed, res.Outcome)
	assert.Error(t, res.Err)
	assert.Equal(t, "failed", res.Outcome.String())

	_, err := repo.Lookup(context.Background(), p.ID)
	assert.NoError(t, err)
}
