package mapdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomCostInvariant(t *testing.T) {
	r := NewRoom("1")
	r.Terrain = "forest"
	r.RecomputeCost()
	require.Equal(t, TerrainCosts["forest"], r.Cost)

	r.Avoid = true
	r.RecomputeCost()
	require.Equal(t, TerrainCosts["forest"]+1000.0, r.Cost)

	r.Avoid = false
	r.Ridable = RoomNotRidable
	r.RecomputeCost()
	require.Equal(t, TerrainCosts["forest"]+5.0, r.Cost)
}

func TestRoomCostAvoidDynamicDesc(t *testing.T) {
	r := NewRoom("1")
	r.Terrain = "field"
	r.DynamicDesc = "A clump of roots is here, fighting to pull you under."
	r.RecomputeCost()
	require.Equal(t, TerrainCosts["field"]+1000.0, r.Cost)
}

func TestDeleteRoomRewritesIncomingExits(t *testing.T) {
	s := New()
	a := NewRoom("1")
	b := NewRoom("2")
	a.Exits[East] = NewExit("2")
	b.Exits[West] = NewExit("1")
	s.AddRoom(a)
	s.AddRoom(b)

	require.NoError(t, s.DeleteRoom("2"))
	_, ok := s.GetRoom("2")
	require.False(t, ok)
	require.Equal(t, Undefined, a.Exits[East].To)
}

func TestSetLabelRejectsUnknownVnum(t *testing.T) {
	s := New()
	err := s.SetLabel("home", "99")
	require.Error(t, err)
}

func TestResolveLabelByVnumAndLabel(t *testing.T) {
	s := New()
	s.AddRoom(NewRoom("100"))
	require.NoError(t, s.SetLabel("home", "100"))

	r, _, err := s.ResolveLabel("100")
	require.NoError(t, err)
	require.Equal(t, "100", r.Vnum)

	r, _, err = s.ResolveLabel("home")
	require.NoError(t, err)
	require.Equal(t, "100", r.Vnum)
}

func TestResolveLabelSuggestsSimilar(t *testing.T) {
	s := New()
	s.AddRoom(NewRoom("100"))
	require.NoError(t, s.SetLabel("tavern", "100"))

	_, suggestions, err := s.ResolveLabel("taverm")
	require.Error(t, err)
	require.Contains(t, suggestions, "tavern")
}

func TestNextVnumSkipsNonNumeric(t *testing.T) {
	s := New()
	s.AddRoom(NewRoom("5"))
	s.AddRoom(NewRoom("undefined-helper"))
	require.Equal(t, "6", s.NextVnum())
}

func TestLinkBidirectionalFillsUndefinedReverse(t *testing.T) {
	s := New()
	a := NewRoom("1")
	b := NewRoom("2")
	b.Exits[West] = NewExit(Undefined)
	s.AddRoom(a)
	s.AddRoom(b)

	require.NoError(t, s.Link("1", East, "2", true))
	require.Equal(t, "2", a.Exits[East].To)
	require.Equal(t, "1", b.Exits[West].To)
}

func TestIsBidirectional(t *testing.T) {
	s := New()
	a := NewRoom("1")
	b := NewRoom("2")
	a.Exits[East] = NewExit("2")
	b.Exits[West] = NewExit("1")
	s.AddRoom(a)
	s.AddRoom(b)
	require.True(t, s.IsBidirectional("1", East, a.Exits[East]))

	b.Exits[West].To = Undefined
	require.False(t, s.IsBidirectional("1", East, a.Exits[East]))
}
