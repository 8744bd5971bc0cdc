// Command demo runs a complete order-to-plate scenario against the
// in-memory stores: seed a small catalog, receive stock, place an order,
// drive a kitchen ticket through its lifecycle, and print the movement
// ledger that results.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"brigade/internal/core/id"
	"brigade/internal/core/numerator"
	"brigade/internal/core/tx"
	"brigade/internal/core/types"
	"brigade/internal/domain/alerts"
	"brigade/internal/domain/ingredient"
	"brigade/internal/domain/kitchen"
	"brigade/internal/domain/ledger"
	"brigade/internal/domain/orders"
	"brigade/internal/domain/recipe"
	"brigade/internal/infrastructure/storage/memory"
	"brigade/internal/notify"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ingredients := memory.NewIngredientRepo()
	recipes := memory.NewRecipeRepo()
	orderRepo := memory.NewOrderRepo()
	tickets := memory.NewTicketRepo()
	store := memory.NewLedgerStore()
	numbers := numerator.NewMemory()

	dispatcher := notify.NewDispatcher(notify.LogNotifier{})
	alertEngine, err := alerts.NewEngine(dispatcher, alerts.DefaultRules())
	if err != nil {
		return err
	}

	allocator := ledger.NewAllocator(store, ingredients, tx.Noop{}, ledger.Config{
		Events: dispatcher,
		Alerts: alertEngine,
	})
	ingredientSvc := ingredient.NewService(ingredients)
	orderSvc := orders.NewService(orderRepo, tx.Noop{}, numbers)
	resolver := recipe.NewResolver(recipes, ingredients)
	kitchenSvc := kitchen.NewService(tickets, orderSvc, resolver, allocator, numbers, dispatcher)

	// --- Catalog ---
	potato := ingredient.New("potato", ingredient.UnitGram)
	potato.MinStock = types.NewQuantityFromFloat64(500)
	potato.YieldProfile = map[string]types.Ratio{"peeled": types.MustRatio("0.8")}

	butter := ingredient.New("butter", ingredient.UnitGram)

	truffle := ingredient.New("truffle shavings", ingredient.UnitGram)

	for _, ing := range []*ingredient.Ingredient{potato, butter, truffle} {
		if err := ingredientSvc.Create(ctx, ing); err != nil {
			return err
		}
	}

	menuItemID := id.New()
	mash := recipe.New(menuItemID, "truffle mash", []recipe.RecipeLine{
		{IngredientID: potato.ID, BaseQuantity: types.NewQuantityFromFloat64(200), Unit: ingredient.UnitGram, ProcessChain: "peeled", WasteAllowancePct: types.MustRatio("0.05")},
		{IngredientID: butter.ID, BaseQuantity: types.NewQuantityFromFloat64(30), Unit: ingredient.UnitGram},
		{IngredientID: truffle.ID, BaseQuantity: types.NewQuantityFromFloat64(5), Unit: ingredient.UnitGram, Optional: true},
	})
	if err := recipes.Create(ctx, mash); err != nil {
		return err
	}

	// --- Deliveries ---
	// Two potato batches with different expiry dates to show FIFO draining
	// the older one first. No truffle at all: the optional line is skipped.
	soon := time.Now().UTC().Add(48 * time.Hour)
	later := time.Now().UTC().Add(7 * 24 * time.Hour)
	for _, in := range []ledger.ReceiveInput{
		{IngredientID: potato.ID, GrossQuantity: types.NewQuantityFromFloat64(600), UnitCost: types.MustMoney("0.002"), ExpiryDate: &soon},
		{IngredientID: potato.ID, GrossQuantity: types.NewQuantityFromFloat64(2000), UnitCost: types.MustMoney("0.0018"), ExpiryDate: &later},
		{IngredientID: butter.ID, GrossQuantity: types.NewQuantityFromFloat64(500), UnitCost: types.MustMoney("0.011")},
	} {
		if _, err := allocator.ReceiveBatch(ctx, in); err != nil {
			return err
		}
	}

	// --- Order ---
	order, err := orderSvc.Create(ctx, 12, []orders.ItemInput{
		{MenuItemID: menuItemID, Name: "truffle mash", Portions: 2, Price: types.MustMoney("14.50")},
	})
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed for table %d\n", order.Number, order.TableNumber)

	// --- Kitchen ticket lifecycle ---
	ticket, err := kitchenSvc.CreateTicket(ctx, order.Items[0].ID, "hot")
	if err != nil {
		return err
	}
	fmt.Printf("ticket %s queued at station %s\n", ticket.Number, ticket.Station)

	if ticket, err = kitchenSvc.Start(ctx, ticket.ID); err != nil {
		return err
	}
	fmt.Printf("ticket %s started, stock consumed\n", ticket.Number)

	if ticket, err = kitchenSvc.Pause(ctx, ticket.ID); err != nil {
		return err
	}
	if ticket, err = kitchenSvc.Resume(ctx, ticket.ID); err != nil {
		return err
	}
	if ticket, err = kitchenSvc.Complete(ctx, ticket.ID); err != nil {
		return err
	}
	if ticket, err = kitchenSvc.Serve(ctx, ticket.ID); err != nil {
		return err
	}
	fmt.Printf("ticket %s served after %ds of active cooking\n", ticket.Number, ticket.ElapsedSeconds)

	// --- Ledger trail ---
	records, err := allocator.Movements(ctx, ledger.MovementFilter{})
	if err != nil {
		return err
	}
	fmt.Printf("\n%-8s %-14s %12s %10s %s\n", "type", "ingredient", "quantity", "cost", "reason")
	names := map[string]string{
		potato.ID.String():  potato.Name,
		butter.ID.String():  butter.Name,
		truffle.ID.String(): truffle.Name,
	}
	for _, rec := range records {
		fmt.Printf("%-8s %-14s %12s %10s %s\n",
			rec.MovementType, names[rec.IngredientID.String()], rec.Quantity, rec.Cost, rec.Reason)
	}

	batches, err := allocator.Batches(ctx, potato.ID)
	if err != nil {
		return err
	}
	fmt.Println("\npotato batches:")
	for _, b := range batches {
		fmt.Printf("  %-10s net=%s used=%s\n", b.Status, b.NetAvailable, b.UsedAmount)
	}
	return nil
}
