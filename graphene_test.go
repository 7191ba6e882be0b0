package graphene

import (
	"errors"
	"strings"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/flanksource/graphene/api"
	"github.com/flanksource/graphene/extract"
	"github.com/flanksource/graphene/types"
)

func tuples[T any](rs *ResultSet[T]) [][]any {
	out, err := rs.Tuples()
	Expect(err).ToNot(HaveOccurred())
	return out
}

var _ = Describe("Subtotals", func() {
	It("counts every browser, largest first", func() {
		rs, err := Subtotals(browserShare(), "browser")
		Expect(err).ToNot(HaveOccurred())

		Expect(tuples(rs)).To(Equal([][]any{
			{"Firefox", 20},
			{"Chrome", 15},
			{"IE", 10},
			{"Safari", 5},
		}))
	})

	It("does not visit resources until rows are read", func() {
		calls := 0
		rs, err := Subtotals(browserShare(), func(l Login) any {
			calls++
			return l.Browser
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(calls).To(Equal(0))
		Expect(rs.Computed()).To(BeFalse())

		first, err := rs.Rows()
		Expect(err).ToNot(HaveOccurred())
		Expect(calls).To(Equal(50))

		second, err := rs.Rows()
		Expect(err).ToNot(HaveOccurred())
		Expect(calls).To(Equal(50))
		Expect(cmp.Diff(first, second)).To(BeEmpty())
		Expect(rs.Computed()).To(BeTrue())
	})

	It("sums to the number of resources", func() {
		rs, err := Subtotals(browserShare(), "browser", "os")
		Expect(err).ToNot(HaveOccurred())
		rows, err := rs.Rows()
		Expect(err).ToNot(HaveOccurred())
		Expect(rows.Total()).To(Equal(50))
		Expect(rows.Sorted()).To(BeTrue())
	})

	It("breaks ties by first appearance", func() {
		rs, err := Subtotals(logins("b", 2, "a", 3, "c", 2, "d", 3), "browser")
		Expect(err).ToNot(HaveOccurred())
		Expect(tuples(rs)).To(Equal([][]any{{"a", 3}, {"d", 3}, {"b", 2}, {"c", 2}}))
	})

	It("groups by composite keys", func() {
		resources := []Login{
			{Browser: "Firefox", OS: "Windows"},
			{Browser: "Firefox", OS: "Mac"},
			{Browser: "Firefox", OS: "Windows"},
		}
		rs, err := Subtotals(resources, "browser", "os")
		Expect(err).ToNot(HaveOccurred())
		Expect(tuples(rs)).To(Equal([][]any{
			{"Firefox", "Windows", 2},
			{"Firefox", "Mac", 1},
		}))
		Expect(rs.Labels()).To(Equal([]string{"browser", "os"}))
	})

	It("returns an empty result for no resources", func() {
		rs, err := Subtotals([]Login{}, "browser")
		Expect(err).ToNot(HaveOccurred())
		rows, err := rs.Rows()
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(BeEmpty())

		max, err := rs.MaxResult()
		Expect(err).ToNot(HaveOccurred())
		Expect(max).To(BeZero())
	})

	It("rejects a threshold", func() {
		_, err := Subtotals(browserShare(), "browser", types.Options{}.WithThreshold(10))
		Expect(errors.Is(err, api.ErrInvalidOptions)).To(BeTrue())
		Expect(api.ErrorCode(err)).To(Equal(api.EINVALID))
	})

	It("accepts methods, expressions and functions", func() {
		rs, err := Subtotals(browserShare(),
			"Platform",
			extract.JQ(".browser"),
			func(l Login) int { return len(l.Browser) },
		)
		Expect(err).ToNot(HaveOccurred())
		Expect(rs.Labels()).To(Equal([]string{"Platform", "jq:.browser", "attr_3"}))

		row, err := rs.At(0)
		Expect(err).ToNot(HaveOccurred())
		Expect(row.Key).To(Equal(types.Key{"Firefox/Windows", "Firefox", 7}))
		Expect(row.Count).To(Equal(20))
	})
})

var _ = Describe("Percentages", func() {
	It("returns the share of every browser", func() {
		rs, err := Percentages(browserShare(), "browser")
		Expect(err).ToNot(HaveOccurred())

		Expect(tuples(rs)).To(Equal([][]any{
			{"Firefox", 40.0},
			{"Chrome", 30.0},
			{"IE", 20.0},
			{"Safari", 10.0},
		}))
	})

	It("sums to 100", func() {
		rs, err := Percentages(logins("a", 1, "b", 1, "c", 1), "browser")
		Expect(err).ToNot(HaveOccurred())
		rows, err := rs.Rows()
		Expect(err).ToNot(HaveOccurred())
		Expect(scalar.EqualWithinAbs(rows.Sum(), 100, 1e-9)).To(BeTrue())
	})

	It("returns an empty result for no resources", func() {
		rs, err := Percentages([]Login(nil), "browser")
		Expect(err).ToNot(HaveOccurred())
		n, err := rs.Len()
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(BeZero())
	})

	Context("with a threshold", func() {
		It("collapses groups below it into one row", func() {
			rs, err := Percentages(browserShare(), "browser", types.Options{}.WithThreshold(25))
			Expect(err).ToNot(HaveOccurred())

			rows, err := rs.Rows()
			Expect(err).ToNot(HaveOccurred())
			Expect(rows.Tuples(types.KindPercentages)).To(Equal([][]any{
				{"Firefox", 40.0},
				{"Chrome", 30.0},
				{"Other", 30.0},
			}))
			Expect(rows[2].Other).To(BeTrue())
			Expect(rows[2].Count).To(Equal(15))
			Expect(scalar.EqualWithinAbs(rows.Sum(), 100, 1e-9)).To(BeTrue())
		})

		It("keeps groups equal to the threshold", func() {
			rs, err := Percentages(browserShare(), "browser", types.Options{}.WithThreshold(20))
			Expect(err).ToNot(HaveOccurred())
			Expect(tuples(rs)).To(Equal([][]any{
				{"Firefox", 40.0},
				{"Chrome", 30.0},
				{"IE", 20.0},
				{"Other", 10.0},
			}))
		})

		It("labels every key component of the collapsed row", func() {
			opts := types.Options{OtherLabel: "rest"}.WithThreshold(50)
			rs, err := Percentages(browserShare(), "browser", "os", opts)
			Expect(err).ToNot(HaveOccurred())
			Expect(tuples(rs)).To(Equal([][]any{{"rest", "rest", 100.0}}))
		})

		It("collapses nothing at zero", func() {
			rs, err := Percentages(browserShare(), "browser", types.Options{}.WithThreshold(0))
			Expect(err).ToNot(HaveOccurred())
			n, err := rs.Len()
			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(4))
		})

		It("sorts the collapsed row after real groups of equal value", func() {
			rs, err := Percentages(logins("a", 5, "b", 3, "c", 1, "d", 1), "browser", types.Options{}.WithThreshold(15))
			Expect(err).ToNot(HaveOccurred())
			Expect(tuples(rs)).To(Equal([][]any{
				{"a", 50.0},
				{"b", 30.0},
				{"Other", 20.0},
			}))

			rs, err = Percentages(logins("a", 6, "b", 2, "c", 1, "d", 1), "browser", types.Options{}.WithThreshold(15))
			Expect(err).ToNot(HaveOccurred())
			Expect(tuples(rs)).To(Equal([][]any{
				{"a", 60.0},
				{"b", 20.0},
				{"Other", 20.0},
			}))
		})

		It("rejects values outside 0-100", func() {
			_, err := Percentages(browserShare(), "browser", types.Options{}.WithThreshold(101))
			Expect(errors.Is(err, api.ErrInvalidOptions)).To(BeTrue())
		})
	})
})

var _ = Describe("ResultSet", func() {
	It("returns the value of the last row from MaxResult", func() {
		rs, err := Subtotals(browserShare(), "browser")
		Expect(err).ToNot(HaveOccurred())
		v, err := rs.MaxResult()
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(5.0))
	})

	It("supports indexed and sliced access", func() {
		rs, err := Subtotals(browserShare(), "browser")
		Expect(err).ToNot(HaveOccurred())

		row, err := rs.At(1)
		Expect(err).ToNot(HaveOccurred())
		Expect(row.Key).To(Equal(types.Key{"Chrome"}))

		_, err = rs.At(4)
		Expect(err).To(HaveOccurred())

		rows, err := rs.Slice(2, 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Key).To(Equal(types.Key{"IE"}))
	})

	It("iterates with All", func() {
		rs, err := Subtotals(browserShare(), "browser")
		Expect(err).ToNot(HaveOccurred())

		var names []any
		for i, row := range rs.All() {
			if i == 2 {
				break
			}
			names = append(names, row.Key[0])
		}
		Expect(names).To(Equal([]any{"Firefox", "Chrome"}))
		Expect(rs.Err()).ToNot(HaveOccurred())
	})

	It("reconfigures into a new instance", func() {
		rs, err := Percentages(browserShare(), "browser")
		Expect(err).ToNot(HaveOccurred())
		_, err = rs.Rows()
		Expect(err).ToNot(HaveOccurred())

		collapsed, err := rs.WithOptions(types.Options{}.WithThreshold(25))
		Expect(err).ToNot(HaveOccurred())
		Expect(collapsed.Computed()).To(BeFalse())
		Expect(rs.Options().Threshold).To(BeNil())

		n, err := collapsed.Len()
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(3))

		n, err = rs.Len()
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(4))
	})

	It("converts between kinds", func() {
		rs, err := Percentages(browserShare(), "browser")
		Expect(err).ToNot(HaveOccurred())

		counts, err := rs.As(types.KindSubtotals)
		Expect(err).ToNot(HaveOccurred())
		Expect(counts.Kind()).To(Equal(types.KindSubtotals))
		Expect(tuples(counts)[0]).To(Equal([]any{"Firefox", 20}))
	})

	It("renders as a table", func() {
		rs, err := Percentages(browserShare(), "browser")
		Expect(err).ToNot(HaveOccurred())

		out := rs.String()
		Expect(out).To(ContainSubstring("percentage"))
		Expect(out).To(ContainSubstring("40.00%"))
		Expect(strings.Index(out, "Firefox")).To(BeNumerically("<", strings.Index(out, "Safari")))
	})

	Describe("errors", func() {
		It("fails at construction for an unknown accessor", func() {
			_, err := Subtotals(browserShare(), "colour")
			Expect(errors.Is(err, api.ErrInvalidExtractor)).To(BeTrue())
			Expect(api.IsInvalid(err)).To(BeTrue())
		})

		It("fails at construction for a value that is not an extractor", func() {
			_, err := Subtotals(browserShare(), 42)
			Expect(errors.Is(err, api.ErrInvalidExtractor)).To(BeTrue())
		})

		It("fails at construction without attributes", func() {
			_, err := Percentages(browserShare())
			Expect(errors.Is(err, api.ErrInvalidExtractor)).To(BeTrue())
		})

		It("fails at construction for an invalid expression", func() {
			_, err := Subtotals(browserShare(), extract.CEL("resource.browser =="))
			Expect(errors.Is(err, api.ErrInvalidExtractor)).To(BeTrue())
		})

		It("propagates extractor failures without caching", func() {
			boom := errors.New("boom")
			fail := true
			rs, err := Subtotals(browserShare(), func(l Login) (string, error) {
				if fail && l.Browser == "IE" {
					return "", boom
				}
				return l.Browser, nil
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = rs.Rows()
			Expect(errors.Is(err, api.ErrExtractorEvaluation)).To(BeTrue())
			Expect(errors.Is(err, boom)).To(BeTrue())
			Expect(api.ErrorCode(err)).To(Equal(api.EEXTRACT))
			Expect(api.IsInvalid(err)).To(BeFalse())
			Expect(rs.Computed()).To(BeFalse())

			for range rs.All() {
				Fail("no rows expected")
			}
			Expect(errors.Is(rs.Err(), boom)).To(BeTrue())

			fail = false
			rows, err := rs.Rows()
			Expect(err).ToNot(HaveOccurred())
			Expect(rows.Total()).To(Equal(50))
		})

		It("recovers panics raised by extractors", func() {
			rs, err := Subtotals(browserShare(), func(l Login) string {
				panic("unexpected")
			})
			Expect(err).ToNot(HaveOccurred())
			_, err = rs.Rows()
			Expect(errors.Is(err, api.ErrExtractorEvaluation)).To(BeTrue())
		})
	})
})
