package backend

import (
	"context"
	"fmt"

	"washdesk/internal/models"
)

// Service catalog and inventory CRUD. These are plain pass-throughs: the
// backend owns the catalog, washdesk only relays edits.

func (c *Client) GetAllServices(ctx context.Context) ([]models.Service, error) {
	var payload struct {
		Services []models.Service `json:"services"`
	}
	if err := c.get(ctx, "/get_all_services", &payload); err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}
	return payload.Services, nil
}

func (c *Client) CreateService(ctx context.Context, svc *models.Service) (int64, error) {
	var payload struct {
		ID flexID `json:"id"`
	}
	if err := c.post(ctx, "/create_service", svc, &payload); err != nil {
		return 0, fmt.Errorf("failed to create service: %w", err)
	}
	return int64(payload.ID), nil
}

func (c *Client) UpdateService(ctx context.Context, svc *models.Service) error {
	if err := c.put(ctx, "/update_service", svc, nil); err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	return nil
}

func (c *Client) DeleteService(ctx context.Context, serviceID int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/services/%d", serviceID)); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return nil
}

func (c *Client) GetInventory(ctx context.Context) ([]models.InventoryItem, error) {
	var payload struct {
		Items []models.InventoryItem `json:"items"`
	}
	if err := c.get(ctx, "/get_inventory", &payload); err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return payload.Items, nil
}

func (c *Client) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) (int64, error) {
	var payload struct {
		ID flexID `json:"id"`
	}
	if err := c.post(ctx, "/create_inventory_item", item, &payload); err != nil {
		return 0, fmt.Errorf("failed to create inventory item: %w", err)
	}
	return int64(payload.ID), nil
}

func (c *Client) UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	if err := c.put(ctx, "/update_inventory_item", item, nil); err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	return nil
}

func (c *Client) DeleteInventoryItem(ctx context.Context, itemID int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/inventory/%d", itemID)); err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return nil
}
