package nal

import "sort"

// Group is a keyframe-anchored run of stream units: the anchor plus every
// dependent unit up to the next anchor. A group without an anchor cannot be
// decoded and is dropped rather than emitted.
type Group struct {
	Anchored bool
	Units    []Unit
}

// BuildGroups partitions non-parameter-set units into keyframe-anchored
// groups. Units preceding the first keyframe form a single anchorless group.
// Parameter sets are returned separately; they travel independent of group
// membership.
func BuildGroups(units []Unit, codec Codec) (groups []Group, paramSets []Unit) {
	var current *Group
	for _, u := range units {
		if u.IsParameterSet(codec) {
			paramSets = append(paramSets, u)
			continue
		}

		if u.IsKeyframe(codec) {
			groups = append(groups, Group{Anchored: true, Units: []Unit{u}})
			current = &groups[len(groups)-1]
			continue
		}

		if current == nil {
			groups = append(groups, Group{Anchored: false})
			current = &groups[len(groups)-1]
		}
		current.Units = append(current.Units, u)
	}
	return groups, paramSets
}

// ExtractionOrder arranges units for a raw bitstream dump: the first SPS and
// first PPS lead (decoders require parameter sets before any coded picture),
// then every other unit follows in original offset order.
func ExtractionOrder(units []Unit, codec Codec) []Unit {
	var sps, pps *Unit
	for i := range units {
		if sps == nil && units[i].IsSPS(codec) {
			sps = &units[i]
		}
		if pps == nil && units[i].IsPPS(codec) {
			pps = &units[i]
		}
	}

	var out []Unit
	if sps != nil {
		out = append(out, *sps)
	}
	if pps != nil {
		out = append(out, *pps)
	}
	for _, u := range units {
		if (sps != nil && u.Offset == sps.Offset) || (pps != nil && u.Offset == pps.Offset) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// DecodableUnits selects units for a keyframe-aware rebuild: parameter sets
// always pass through, anchored groups keep all their units, and anchorless
// groups are discarded wholesale (dropping frames beats emitting undecodable
// data). The kept set stays in offset order, then the leading SPS/PPS
// promotion of ExtractionOrder is applied.
func DecodableUnits(units []Unit, codec Codec) []Unit {
	groups, paramSets := BuildGroups(units, codec)

	kept := make([]Unit, 0, len(units))
	kept = append(kept, paramSets...)
	for _, g := range groups {
		if !g.Anchored {
			continue
		}
		kept = append(kept, g.Units...)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Offset < kept[j].Offset })

	return ExtractionOrder(kept, codec)
}
