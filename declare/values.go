package declare

import (
	"github.com/pvcod/xfile"
)

func normFloat32(v interface{}) float32 {
	switch v := v.(type) {
	case int:
		return float32(v)
	case uint:
		return float32(v)
	case uint8:
		return float32(v)
	case uint16:
		return float32(v)
	case uint32:
		return float32(v)
	case uint64:
		return float32(v)
	case int8:
		return float32(v)
	case int16:
		return float32(v)
	case int32:
		return float32(v)
	case int64:
		return float32(v)
	case float32:
		return v
	case float64:
		return float32(v)
	}

	return 0
}

func normUint8(v interface{}) uint8 {
	switch v := v.(type) {
	case int:
		return uint8(v)
	case uint:
		return uint8(v)
	case uint8:
		return v
	case uint16:
		return uint8(v)
	case uint32:
		return uint8(v)
	case uint64:
		return uint8(v)
	case int8:
		return uint8(v)
	case int16:
		return uint8(v)
	case int32:
		return uint8(v)
	case int64:
		return uint8(v)
	case float32:
		return uint8(v)
	case float64:
		return uint8(v)
	}

	return 0
}

func normVec3(v []interface{}) xfile.Vec3 {
	var r xfile.Vec3
	for i := range r {
		if i < len(v) {
			r[i] = normFloat32(v[i])
		}
	}
	return r
}
