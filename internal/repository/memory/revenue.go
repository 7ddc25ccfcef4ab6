package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"rentalyard/internal/calendar"
	"rentalyard/internal/model"
	"rentalyard/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/shopspring/decimal"
)

// RevenueRepository aggregates the in-memory rental history the way the
// SQL DATE_TRUNC queries do.
type RevenueRepository struct {
	store *Store
}

var _ repository.RevenueRepository = (*RevenueRepository)(nil)

func (r *RevenueRepository) CAByPeriod(ctx context.Context, groupBy string, start, end calendar.Date) ([]repository.RevenueDataRow, error) {
	byPeriod := make(map[calendar.Date]*repository.RevenueDataRow)
	if _, err := truncate(start, groupBy); err != nil {
		return nil, err
	}
	err := r.store.read(ctx, func(txn *memdb.Txn) error {
		return each(txn, tableRentals, "seq", false, func(obj interface{}) {
			ep := obj.(*rentalRecord).Episode
			if ep.ReturnDate.Before(start) || ep.ReturnDate.After(end) {
				return
			}
			period, _ := truncate(ep.ReturnDate, groupBy)
			row, ok := byPeriod[period]
			if !ok {
				row = &repository.RevenueDataRow{Period: period.String(), TotalCA: decimal.Zero}
				byPeriod[period] = row
			}
			row.Episodes++
			row.BusinessDays += int64(ep.BusinessDays)
			row.TotalCA = row.TotalCA.Add(ep.CA)
			if ep.LongDurationDiscount {
				row.DiscountedEpisodes++
			}
			if ep.MinimumInvoiceApplied {
				row.MinimumInvoiceApplied++
			}
		})
	})
	if err != nil {
		return nil, err
	}

	rows := make([]repository.RevenueDataRow, 0, len(byPeriod))
	for _, row := range byPeriod {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })
	return rows, nil
}

func (r *RevenueRepository) CAByEquipment(ctx context.Context, start, end calendar.Date) ([]repository.EquipmentRevenueRow, error) {
	byUnit := make(map[uuid.UUID]*repository.EquipmentRevenueRow)
	err := r.store.read(ctx, func(txn *memdb.Txn) error {
		var lookupErr error
		err := each(txn, tableRentals, "seq", false, func(obj interface{}) {
			ep := obj.(*rentalRecord).Episode
			if ep.ReturnDate.Before(start) || ep.ReturnDate.After(end) {
				return
			}
			row, ok := byUnit[ep.EquipmentID]
			if !ok {
				var unit model.EquipmentUnit
				rec, err := findUnit(txn, ep.EquipmentID)
				switch {
				case err == nil:
					unit = rec.Unit
				case !errors.Is(err, repository.ErrNotFound):
					lookupErr = err
				}
				row = &repository.EquipmentRevenueRow{
					EquipmentID:  ep.EquipmentID,
					SerialNumber: unit.SerialNumber,
					Designation:  unit.Designation,
					TotalCA:      decimal.Zero,
				}
				byUnit[ep.EquipmentID] = row
			}
			row.Episodes++
			row.BusinessDays += int64(ep.BusinessDays)
			row.TotalCA = row.TotalCA.Add(ep.CA)
		})
		if err != nil {
			return err
		}
		return lookupErr
	})
	if err != nil {
		return nil, err
	}

	rows := make([]repository.EquipmentRevenueRow, 0, len(byUnit))
	for _, row := range byUnit {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].TotalCA.Cmp(rows[j].TotalCA); c != 0 {
			return c > 0
		}
		return rows[i].SerialNumber < rows[j].SerialNumber
	})
	return rows, nil
}

// truncate mirrors postgres DATE_TRUNC on a date; weeks start on Monday.
func truncate(d calendar.Date, groupBy string) (calendar.Date, error) {
	switch groupBy {
	case repository.GroupByDay:
		return d, nil
	case repository.GroupByWeek:
		return d.AddDays(-((int(d.Weekday()) + 6) % 7)), nil
	case repository.GroupByMonth:
		return calendar.NewDate(d.Year, d.Month, 1), nil
	case repository.GroupByQuarter:
		first := time.Month((int(d.Month)-1)/3*3 + 1)
		return calendar.NewDate(d.Year, first, 1), nil
	case repository.GroupByYear:
		return calendar.NewDate(d.Year, time.January, 1), nil
	}
	return calendar.Date{}, fmt.Errorf("unsupported grouping %q", groupBy)
}
