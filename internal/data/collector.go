package data

import (
	"sensor-analytics/pkg/models"
)

// Collector accumulates raw sensor records in arrival order.
type Collector struct {
	records []models.RawSensorRecord
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Add(r models.RawSensorRecord) {
	c.records = append(c.records, r)
}

func (c *Collector) AddBatch(batch []models.RawSensorRecord) {
	c.records = append(c.records, batch...)
}

func (c *Collector) Len() int { return len(c.records) }

// Records returns the collected sequence. The slice is shared, not copied.
func (c *Collector) Records() []models.RawSensorRecord {
	return c.records
}

func (c *Collector) Reset() {
	c.records = nil
}
