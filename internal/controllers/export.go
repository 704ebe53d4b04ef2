package controllers

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"order-dispatch/internal/entities"
	"order-dispatch/internal/session"
)

const (
	sheetOrders     = "Заказы"
	sheetDeliveries = "Мои доставки"
)

var exportHeaders = []interface{}{
	"Номер", "Тип", "Статус", "Статус A", "Статус B", "Позиции", "Сумма", "Клиент", "Курьер", "Создан",
}

func buildOrdersWorkbook(snap session.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetOrders); err != nil {
		return nil, err
	}
	if err := writeOrdersSheet(f, sheetOrders, snap.Commandes); err != nil {
		return nil, err
	}

	if len(snap.MesLivraisons) > 0 {
		if _, err := f.NewSheet(sheetDeliveries); err != nil {
			return nil, err
		}
		if err := writeOrdersSheet(f, sheetDeliveries, snap.MesLivraisons); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeOrdersSheet(f *excelize.File, sheet string, orders []entities.Order) error {
	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return err
	}
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "J1", style)

	for i, order := range orders {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := orderRow(order)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	f.SetColWidth(sheet, "F", "F", 50)
	f.SetColWidth(sheet, "H", "H", 25)
	f.SetColWidth(sheet, "J", "J", 20)
	return nil
}

func orderRow(o entities.Order) []interface{} {
	items := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		line := item.Product.Name
		if item.Quantity > 1 {
			line = fmt.Sprintf("%d x %s", item.Quantity, line)
		}
		if item.Extras.Valid {
			line += " (" + item.Extras.String + ")"
		}
		items = append(items, line)
	}

	client := ""
	if o.Client != nil {
		client = o.Client.Name
	}

	return []interface{}{
		o.Number,
		string(o.Type),
		o.Status,
		o.StatusA.String,
		o.StatusB.String,
		strings.Join(items, "; "),
		o.Total.StringFixed(2),
		client,
		o.CourierID.String,
		o.CreatedAt.Format("2006-01-02 15:04"),
	}
}
