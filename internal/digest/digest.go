package digest

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"sensor-analytics/pkg/models"
)

// Leaf hashes one record's fields in a fixed order.
func Leaf(r models.SensorRecord) common.Hash {
	return crypto.Keccak256Hash(
		[]byte(r.DeviceID),
		[]byte(strconv.FormatInt(r.Timestamp.Unix(), 10)),
		[]byte(strconv.Itoa(r.OutsideTemperature)),
		[]byte(strconv.Itoa(r.OutsideHumidity)),
		[]byte(strconv.Itoa(r.RoomTemperature)),
		[]byte(strconv.Itoa(r.RoomHumidity)),
	)
}

// BatchRoot is the Merkle root over a batch's leaves.
func BatchRoot(batch []models.SensorRecord) common.Hash {
	leaves := make([]common.Hash, len(batch))
	for i, r := range batch {
		leaves[i] = Leaf(r)
	}
	return MerkleRoot(leaves)
}

// MerkleRoot pairs leaves level by level; an odd leaf is promoted unchanged.
// An empty input has the zero hash as root.
func MerkleRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	for len(leaves) > 1 {
		var newLevel []common.Hash
		for i := 0; i < len(leaves); i += 2 {
			if i+1 < len(leaves) {
				newLevel = append(newLevel, crypto.Keccak256Hash(leaves[i].Bytes(), leaves[i+1].Bytes()))
			} else {
				newLevel = append(newLevel, leaves[i])
			}
		}
		leaves = newLevel
	}
	return leaves[0]
}

type BatchDigest struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
	Root    string `json:"root"`
}

// Dataset digests the main batch and every user batch, in that order.
func Dataset(ds *models.Dataset) []BatchDigest {
	out := make([]BatchDigest, 0, len(ds.Users)+1)
	out = append(out, BatchDigest{Name: "sensors", Records: len(ds.Sensors), Root: BatchRoot(ds.Sensors).Hex()})
	for _, u := range ds.Users {
		out = append(out, BatchDigest{
			Name:    "user:" + u.Username,
			Records: len(u.SensorData),
			Root:    BatchRoot(u.SensorData).Hex(),
		})
	}
	return out
}
