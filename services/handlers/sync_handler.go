package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/shared"
)

type SyncHandler struct {
	syncSvc SyncServiceInterface
}

func NewSyncHandler(syncSvc SyncServiceInterface) *SyncHandler {
	return &SyncHandler{syncSvc: syncSvc}
}

func parseQueueID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, shared.NewBadRequestError(err, "Invalid queue id")
	}
	return id, nil
}

// @Summary Enqueue sync item
// @Description Append one pending mutation to the outbox
// @Tags sync
// @Accept json
// @Produce json
// @Param item body dto.EnqueueSyncRequest true "Mutation"
// @Success 201 {object} shared.Response{data=model.SyncQueueItem}
// @Router /api/v1/sync/queue [post]
func (h *SyncHandler) Enqueue(c *fiber.Ctx) error {
	var req dto.EnqueueSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	item, err := h.syncSvc.Enqueue(req)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, item)
}

// @Summary Dequeue batch
// @Description Return the oldest pending items without removing them
// @Tags sync
// @Produce json
// @Param limit query int false "Batch size"
// @Success 200 {object} shared.Response{data=[]model.SyncQueueItem}
// @Router /api/v1/sync/queue [get]
func (h *SyncHandler) DequeueBatch(c *fiber.Ctx) error {
	if tableName := c.Query("table"); tableName != "" {
		items, err := h.syncSvc.QueueByTable(tableName)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, items)
	}

	items, err := h.syncSvc.DequeueBatch(c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, items)
}

// @Summary Ack sync item
// @Description Remove a confirmed item from the outbox
// @Tags sync
// @Produce json
// @Param id path int true "Queue ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/sync/queue/{id}/ack [post]
func (h *SyncHandler) Ack(c *fiber.Ctx) error {
	id, err := parseQueueID(c)
	if err != nil {
		return err
	}
	if err := h.syncSvc.Ack(id); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Ack many sync items
// @Description Remove a set of confirmed items from the outbox
// @Tags sync
// @Accept json
// @Produce json
// @Param request body dto.AckManyRequest true "Queue IDs"
// @Success 200 {object} shared.Response{data=int64}
// @Router /api/v1/sync/queue/ack [post]
func (h *SyncHandler) AckMany(c *fiber.Ctx) error {
	var req dto.AckManyRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	affected, err := h.syncSvc.AckMany(req.IDs)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, affected)
}

// @Summary Nack sync item
// @Description Record a failed replay; the item stays queued with its retry count bumped
// @Tags sync
// @Accept json
// @Produce json
// @Param id path int true "Queue ID"
// @Param request body dto.NackSyncRequest true "Failure"
// @Success 200 {object} shared.Response
// @Router /api/v1/sync/queue/{id}/nack [post]
func (h *SyncHandler) Nack(c *fiber.Ctx) error {
	id, err := parseQueueID(c)
	if err != nil {
		return err
	}

	var req dto.NackSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := h.syncSvc.Nack(id, req.ErrorMessage); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Count pending items
// @Description Count the outbox's pending items
// @Tags sync
// @Produce json
// @Success 200 {object} shared.Response{data=int64}
// @Router /api/v1/sync/queue/count [get]
func (h *SyncHandler) Count(c *fiber.Ctx) error {
	count, err := h.syncSvc.Count()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, count)
}

// @Summary Clear sync queue
// @Description Empty the outbox; used by the logout flow
// @Tags sync
// @Produce json
// @Success 200 {object} shared.Response{data=int64}
// @Router /api/v1/sync/queue [delete]
func (h *SyncHandler) Clear(c *fiber.Ctx) error {
	cleared, err := h.syncSvc.Clear()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, cleared)
}

// @Summary Save progress batch
// @Description Retain one offline progress payload
// @Tags sync
// @Accept json
// @Produce json
// @Param batch body dto.SaveProgressBatchRequest true "Batch"
// @Success 201 {object} shared.Response{data=model.OfflineProgressBatch}
// @Router /api/v1/sync/batches [post]
func (h *SyncHandler) SaveProgressBatch(c *fiber.Ctx) error {
	var req dto.SaveProgressBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	batch, err := h.syncSvc.SaveProgressBatch(req)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, batch)
}

// @Summary List unsynced batches
// @Description List retained progress batches not yet replayed
// @Tags sync
// @Produce json
// @Param limit query int false "Batch size"
// @Success 200 {object} shared.Response{data=[]model.OfflineProgressBatch}
// @Router /api/v1/sync/batches [get]
func (h *SyncHandler) UnsyncedBatches(c *fiber.Ctx) error {
	batches, err := h.syncSvc.UnsyncedBatches(c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, batches)
}

// @Summary Mark batch synced
// @Description Flag one retained batch as replayed
// @Tags sync
// @Produce json
// @Param id path int true "Batch ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/sync/batches/{id}/synced [post]
func (h *SyncHandler) MarkBatchSynced(c *fiber.Ctx) error {
	id, err := parseQueueID(c)
	if err != nil {
		return err
	}
	if err := h.syncSvc.MarkBatchSynced(id); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Get metadata
// @Description Get one app metadata value, or all when no key is given
// @Tags sync
// @Produce json
// @Param key path string false "Metadata key"
// @Success 200 {object} shared.Response{data=model.AppMetadata}
// @Router /api/v1/sync/metadata/{key} [get]
func (h *SyncHandler) GetMetadata(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		meta, err := h.syncSvc.AllMetadata()
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, meta)
	}

	meta, err := h.syncSvc.GetMetadata(key)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, meta)
}

// @Summary Set metadata
// @Description Set one app metadata value
// @Tags sync
// @Accept json
// @Produce json
// @Param key path string true "Metadata key"
// @Param request body dto.SetMetadataRequest true "Value"
// @Success 200 {object} shared.Response
// @Router /api/v1/sync/metadata/{key} [put]
func (h *SyncHandler) SetMetadata(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return shared.NewBadRequestError(nil, "Metadata key is required")
	}

	var req dto.SetMetadataRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := h.syncSvc.SetMetadata(key, req.Value); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Set offline mode
// @Description Toggle the app's offline mode flag
// @Tags sync
// @Accept json
// @Produce json
// @Param request body dto.OfflineModeRequest true "Flag"
// @Success 200 {object} shared.Response
// @Router /api/v1/sync/offline-mode [put]
func (h *SyncHandler) SetOfflineMode(c *fiber.Ctx) error {
	var req dto.OfflineModeRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := h.syncSvc.SetOfflineMode(req.IsOffline); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Get offline mode
// @Description Read the app's offline mode flag
// @Tags sync
// @Produce json
// @Success 200 {object} shared.Response{data=bool}
// @Router /api/v1/sync/offline-mode [get]
func (h *SyncHandler) GetOfflineMode(c *fiber.Ctx) error {
	isOffline, err := h.syncSvc.IsOfflineMode()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, isOffline)
}
