package usecase

import (
	"context"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

// ReserveLine names one requested decrement within a reservation.
type ReserveLine struct {
	ProductID int
	Quantity  int
}

// Reservation records the exact decrements applied by ReserveAll so a later
// failure can reverse them with Release.
type Reservation struct {
	Lines []ReserveLine
}

// InventoryLedger is the single owner of stock counters and the only
// component allowed to decrement them.
type InventoryLedger interface {
	CheckAvailable(ctx context.Context, productID, quantity int) (bool, error)
	// ReserveAll decrements stock for every line or for none of them. On an
	// insufficient-stock failure partway through, decrements already applied
	// are rolled back before the error is returned.
	ReserveAll(ctx context.Context, lines []ReserveLine) (*Reservation, error)
	Release(ctx context.Context, reservation *Reservation) error
	Adjust(ctx context.Context, productID, delta int) (*domain.Product, error)
}

type inventoryLedger struct {
	productRepo domain.ProductRepository
	log         *logrus.Logger
}

func NewInventoryLedger(productRepo domain.ProductRepository, logger *logrus.Logger) InventoryLedger {
	return &inventoryLedger{
		productRepo: productRepo,
		log:         logger,
	}
}

func (l *inventoryLedger) CheckAvailable(ctx context.Context, productID, quantity int) (bool, error) {
	if productID <= 0 {
		return false, domain.ValidationError("invalid product ID")
	}
	if quantity <= 0 {
		return false, domain.ValidationError("quantity must be positive")
	}

	product, err := l.productRepo.GetProductByID(productID)
	if err != nil {
		return false, err
	}
	return product.Stock >= quantity, nil
}

func (l *inventoryLedger) ReserveAll(ctx context.Context, lines []ReserveLine) (*Reservation, error) {
	if len(lines) == 0 {
		return nil, domain.ValidationError("reservation must contain at least one line")
	}

	// Duplicate product lines are folded into one decrement so the
	// availability guard sees the summed quantity.
	merged := make([]ReserveLine, 0, len(lines))
	index := make(map[int]int)
	for _, line := range lines {
		if line.ProductID <= 0 {
			return nil, domain.ValidationError("invalid product ID in reservation")
		}
		if line.Quantity <= 0 {
			return nil, domain.ValidationError("reservation quantity must be positive (product %d)", line.ProductID)
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}

	reservation := &Reservation{Lines: make([]ReserveLine, 0, len(merged))}

	for _, line := range merged {
		l.log.Infof("Ledger: Reserving %d unit(s) of product %d", line.Quantity, line.ProductID)
		if err := l.productRepo.DecrementStock(line.ProductID, line.Quantity); err != nil {
			l.log.Warnf("Ledger: Reservation failed for product %d: %v. Rolling back %d prior decrement(s).",
				line.ProductID, err, len(reservation.Lines))
			l.rollback(reservation)
			return nil, err
		}
		reservation.Lines = append(reservation.Lines, line)
	}

	l.log.Infof("Ledger: Reservation complete for %d product(s)", len(reservation.Lines))
	return reservation, nil
}

func (l *inventoryLedger) rollback(reservation *Reservation) {
	for _, line := range reservation.Lines {
		if err := l.productRepo.IncrementStock(line.ProductID, line.Quantity); err != nil {
			l.log.Errorf("Ledger: CRITICAL! Failed to roll back %d unit(s) of product %d: %v. Manual stock adjustment needed!",
				line.Quantity, line.ProductID, err)
		}
	}
}

func (l *inventoryLedger) Release(ctx context.Context, reservation *Reservation) error {
	if reservation == nil || len(reservation.Lines) == 0 {
		return nil
	}

	for _, line := range reservation.Lines {
		l.log.Warnf("Ledger: Releasing %d unit(s) of product %d", line.Quantity, line.ProductID)
		if err := l.productRepo.IncrementStock(line.ProductID, line.Quantity); err != nil {
			l.log.Errorf("Ledger: CRITICAL! Failed to release %d unit(s) of product %d: %v. Manual stock adjustment needed!",
				line.Quantity, line.ProductID, err)
			return err
		}
	}
	return nil
}

func (l *inventoryLedger) Adjust(ctx context.Context, productID, delta int) (*domain.Product, error) {
	if productID <= 0 {
		return nil, domain.ValidationError("invalid product ID")
	}
	if delta == 0 {
		return nil, domain.ValidationError("adjustment delta cannot be zero")
	}

	if delta > 0 {
		if err := l.productRepo.IncrementStock(productID, delta); err != nil {
			return nil, err
		}
	} else {
		err := l.productRepo.DecrementStock(productID, -delta)
		if err != nil {
			if domain.IsKind(err, domain.KindInsufficientStock) {
				l.log.Warnf("Ledger: Adjustment of %d rejected for product %d, would drive stock below zero", delta, productID)
				return nil, domain.ValidationError("invalid adjustment: stock cannot go below zero")
			}
			return nil, err
		}
	}

	l.log.Infof("Ledger: Stock adjusted by %d for product %d", delta, productID)
	return l.productRepo.GetProductByID(productID)
}
