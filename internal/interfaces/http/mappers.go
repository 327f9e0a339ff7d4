package http

import (
	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	domaininv "github.com/jhoicas/FichesVente-api/internal/domain/inventory"
)

func toStockItemResponse(it *entity.StockItem) *dto.StockItemResponse {
	if it == nil {
		return nil
	}
	return &dto.StockItemResponse{
		ID:             it.ID,
		Name:           it.Name,
		OnHand:         it.OnHand,
		InitialOnHand:  it.InitialOnHand,
		Baseline:       it.Baseline,
		AlertThreshold: it.AlertThreshold,
		Unit:           it.Unit,
		UnitPrice:      it.UnitPrice,
		Value:          it.Value(),
		Percentage:     domaininv.Percentage(it.OnHand, it.Baseline),
		Level:          domaininv.Level(it),
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
		DeletedAt:      it.DeletedAt,
	}
}

func toStockItemList(items []*entity.StockItem) []dto.StockItemResponse {
	out := make([]dto.StockItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, *toStockItemResponse(it))
	}
	return out
}

func toTransactionList(txns []*entity.StockTransaction) []dto.StockTransactionResponse {
	out := make([]dto.StockTransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, dto.StockTransactionResponse{
			ID:          t.ID,
			StockItemID: t.StockItemID,
			ItemName:    t.ItemName,
			Kind:        t.Kind,
			Quantity:    t.Quantity,
			Reason:      t.Reason,
			SaleID:      t.SaleID,
			Operator:    t.Operator,
			CreatedAt:   t.CreatedAt,
		})
	}
	return out
}

func toReplenishmentList(in []inventory.ReplenishmentSuggestion) []dto.ReplenishmentSuggestionDTO {
	out := make([]dto.ReplenishmentSuggestionDTO, 0, len(in))
	for _, s := range in {
		out = append(out, dto.ReplenishmentSuggestionDTO{
			ItemID:        s.Item.ID,
			Name:          s.Item.Name,
			OnHand:        s.Item.OnHand,
			Baseline:      s.Item.Baseline,
			Percentage:    s.Percentage,
			SuggestedQty:  s.SuggestedQty,
			EstimatedCost: s.EstimatedCost,
			Priority:      s.Priority,
		})
	}
	return out
}

func toAuditResponse(r *inventory.AuditReport) *dto.StockAuditResponse {
	if r == nil {
		return nil
	}
	return &dto.StockAuditResponse{
		ItemID:         r.ItemID,
		InitialOnHand:  r.InitialOnHand,
		TotalIn:        r.TotalIn,
		TotalOut:       r.TotalOut,
		ExpectedOnHand: r.ExpectedOnHand,
		OnHand:         r.OnHand,
		Consistent:     r.Consistent,
	}
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemDTO, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemDTO{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Unit:        it.Unit,
			Subtotal:    it.Subtotal(),
		})
	}
	return &dto.SaleResponse{
		ID:              s.ID,
		Number:          s.ShortID(),
		SaleDate:        s.SaleDate,
		CustomerPhone:   s.CustomerPhone,
		CustomerPhone2:  s.CustomerPhone2,
		DeliveryAddress: s.DeliveryAddress,
		Courier:         s.Courier,
		PaymentMethod:   s.PaymentMethod,
		PaymentMethod2:  s.PaymentMethod2,
		Items:           items,
		Total:           s.Total(),
		Status:          s.Status,
		IsValidated:     s.IsValidated,
		CreatedBy:       s.CreatedBy,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toSaleList(sales []*entity.Sale) []dto.SaleResponse {
	out := make([]dto.SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, *toSaleResponse(s))
	}
	return out
}

func toSaleItems(in []dto.SaleItemDTO) []entity.SaleItem {
	if in == nil {
		return nil
	}
	out := make([]entity.SaleItem, 0, len(in))
	for _, it := range in {
		out = append(out, entity.SaleItem{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Unit:        it.Unit,
		})
	}
	return out
}
