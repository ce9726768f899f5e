package renderset

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/forge/render/gpudata"
)

// ObjectRow is one ECS-provided renderable instance.
type ObjectRow struct {
	Key DrawKey
	ObjectIdx uint32
	BoundingSphere mgl32.Vec4 // xyz = center, w = radius
	MeshletCount uint32
}

// DrawGroup is one multi-draw-indirect call's worth of contiguous instances.
type DrawGroup struct {
	Key DrawKey
	Len int
}

// Range is a half-open [Start, End) index range into ObjectIds/Groups.
type Range struct {
	Start, End int
}

func (r Range) Len() int { return r.End - r.Start }

// Ranges partitions object ids or groups into opaque/alpha-cutout
// sub-ranges (RenderableRanges).
type Ranges struct {
	Opaque Range
	AlphaCutout Range
}

// Set is the cross-frame renderable set.
type Set struct {
	ObjectIds []gpudata.ObjectID
	Groups []DrawGroup

	StaticObjectRanges Ranges
	DynamicObjectRanges Ranges
	TransparentObjectRange Range
	StaticGroupRanges Ranges
	DynamicGroupRanges Ranges
	TransparentGroupRange Range

	staticMeshletCount uint32
	staticObjectCount int
	staticGroupCount int
}

// Update is a one-shot builder mirroring RenderableSetUpdate's fluent API:
// each With* call opts one partition into this frame's rebuild.
type Update struct {
	set *Set
	includeOpaque, includeAlphaCut, includeTransparent bool
}

func NewUpdate(set *Set) *Update { return &Update{set: set} }

func (u *Update) WithOpaque() *Update { u.includeOpaque = true; return u }
func (u *Update) WithAlphaCutout() *Update { u.includeAlphaCut = true; return u }
func (u *Update) WithTransparent() *Update { u.includeTransparent = true; return u }

// Input bundles the per-frame ECS output the compiler classifies.
type Input struct {
	StaticOpaque []ObjectRow
	StaticAlphaCutout []ObjectRow
	DynamicOpaque []ObjectRow
	DynamicAlphaCutout []ObjectRow
	DynamicTransparent []ObjectRow
	StaticTransparent []ObjectRow
	ViewLocation mgl32.Vec3
	StaticDirty bool
}

// Compile runs the full compile pipeline: reuse-or-rebuild the static region,
// append dynamic+transparent instances, sort, and compact into groups +
// GpuObjectIds.
//
// meshlet_base is emitted as the plain running sum of each preceding
// instance's mesh.MeshletCount (base starts at 0, then accumulates after
// every emission), not the total emitted id count plus that sum. For meshlet
// counts 2,3,1,1 this produces bases 0,2,5,6; consecutive bases must always
// differ by exactly the earlier instance's mesh.MeshletCount.
func (u *Update) Compile(in Input) {
	set := u.set

	if in.StaticDirty {
		set.staticMeshletCount = 0
		set.ObjectIds = set.ObjectIds[:0]
		set.Groups = set.Groups[:0]

		var opaque, alphaCut []ObjectRow
		if u.includeOpaque {
			opaque = sortedByKey(in.StaticOpaque)
		}
		if u.includeAlphaCut {
			alphaCut = sortedByKey(in.StaticAlphaCutout)
		}

		startO := len(set.ObjectIds)
		groupsBeforeO := len(set.Groups)
		compactGroups(opaque, &set.ObjectIds, &set.Groups, &set.staticMeshletCount)
		set.StaticObjectRanges.Opaque = Range{startO, len(set.ObjectIds)}
		set.StaticGroupRanges.Opaque = Range{groupsBeforeO, len(set.Groups)}

		startA := len(set.ObjectIds)
		groupsBeforeA := len(set.Groups)
		compactGroups(alphaCut, &set.ObjectIds, &set.Groups, &set.staticMeshletCount)
		set.StaticObjectRanges.AlphaCutout = Range{startA, len(set.ObjectIds)}
		set.StaticGroupRanges.AlphaCutout = Range{groupsBeforeA, len(set.Groups)}

		set.staticObjectCount = len(set.ObjectIds)
		set.staticGroupCount = len(set.Groups)
	} else {
		set.ObjectIds = set.ObjectIds[:set.staticObjectCount]
		set.Groups = set.Groups[:set.staticGroupCount]
	}

	meshletCount := set.staticMeshletCount

	var dynOpaque, dynAlphaCut []ObjectRow
	if u.includeOpaque {
		dynOpaque = sortedByKey(in.DynamicOpaque)
	}
	if u.includeAlphaCut {
		dynAlphaCut = sortedByKey(in.DynamicAlphaCutout)
	}

	startDO := len(set.ObjectIds)
	groupsDO := len(set.Groups)
	compactGroups(dynOpaque, &set.ObjectIds, &set.Groups, &meshletCount)
	set.DynamicObjectRanges.Opaque = Range{startDO, len(set.ObjectIds)}
	set.DynamicGroupRanges.Opaque = Range{groupsDO, len(set.Groups)}

	startDA := len(set.ObjectIds)
	groupsDA := len(set.Groups)
	compactGroups(dynAlphaCut, &set.ObjectIds, &set.Groups, &meshletCount)
	set.DynamicObjectRanges.AlphaCutout = Range{startDA, len(set.ObjectIds)}
	set.DynamicGroupRanges.AlphaCutout = Range{groupsDA, len(set.Groups)}

	if u.includeTransparent {
		transparent := append(append([]ObjectRow{}, in.DynamicTransparent...), in.StaticTransparent...)
		sortByDistanceDesc(transparent, in.ViewLocation)

		startT := len(set.ObjectIds)
		groupsT := len(set.Groups)
		compactGroups(transparent, &set.ObjectIds, &set.Groups, &meshletCount)
		set.TransparentObjectRange = Range{startT, len(set.ObjectIds)}
		set.TransparentGroupRange = Range{groupsT, len(set.Groups)}
	}
}

func sortedByKey(rows []ObjectRow) []ObjectRow {
	out := append([]ObjectRow{}, rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

func sortByDistanceDesc(rows []ObjectRow, view mgl32.Vec3) {
	sort.Slice(rows, func(i, j int) bool {
		return sqDist(view, rows[i].BoundingSphere) > sqDist(view, rows[j].BoundingSphere)
	})
}

func sqDist(view mgl32.Vec3, sphere mgl32.Vec4) float32 {
	dx := sphere.X() - view.X()
	dy := sphere.Y() - view.Y()
	dz := sphere.Z() - view.Z()
	return dx*dx + dy*dy + dz*dz
}

// compactGroups walks rows (already sorted) and emits a new DrawGroup
// whenever the key changes, writing each instance's GpuObjectId with
// meshlet_base as the running sum of preceding meshlet counts.
func compactGroups(rows []ObjectRow, ids *[]gpudata.ObjectID, groups *[]DrawGroup, meshletCount *uint32) {
	if len(rows) == 0 {
		return
	}

	curKey := rows[0].Key
	*groups = append(*groups, DrawGroup{Key: curKey, Len: 0})

	for _, row := range rows {
		if row.Key != curKey {
			curKey = row.Key
			*groups = append(*groups, DrawGroup{Key: curKey, Len: 0})
		}
		(*groups)[len(*groups)-1].Len++

		*ids = append(*ids, gpudata.ObjectID{DataIdx: row.ObjectIdx, MeshletBase: *meshletCount})
		*meshletCount += row.MeshletCount
	}
}
