package classdata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const singularPayload = `
<addcourse>
  <classdata>
    <course key="COMPSCI-1JC3" code="COMPSCI" number="1JC3" title="Introduction to Computational Thinking">
      <uselection>
        <selection key="s1">
          <block type="LEC" secNo="C01" key="LEC-C01" im="P" timeblockids="1"/>
        </selection>
        <timeblock id="1" day="2" t1="600" t2="680"/>
      </uselection>
    </course>
  </classdata>
</addcourse>`

func TestParseSingularShapes(t *testing.T) {
	data, err := Parse(singularPayload)
	require.NoError(t, err)
	require.NotNil(t, data)

	require.Equal(t, Course{
		Subject: "COMPSCI",
		Number:  "1JC3",
		Title:   "Introduction to Computational Thinking",
	}, data.Course)

	require.Equal(t, []Section{
		{Component: "LEC", Code: "C01", BlockKey: "LEC-C01", Delivery: "in person"},
	}, data.Sections)
	require.Equal(t, []Meeting{
		{Component: "LEC", SectionCode: "C01", Day: 2, StartMinutes: 600, EndMinutes: 680},
	}, data.Meetings)
}

// a node occurring once must normalize the same as the equivalent
// document where it occurs as a list
func TestParseShapeTolerance(t *testing.T) {
	listPayload := `
<addcourse>
  <classdata>
    <course code="COMPSCI" number="1JC3" title="Introduction to Computational Thinking">
      <uselection>
        <selection key="s1">
          <block type="LEC" secNo="C01" key="LEC-C01" im="P" timeblockids="1"/>
          <block type="TUT" secNo="T01" key="TUT-T01" timeblockids="2"/>
        </selection>
        <timeblock id="1" day="2" t1="600" t2="680"/>
        <timeblock id="2" day="4" t1="780" t2="830"/>
      </uselection>
    </course>
  </classdata>
</addcourse>`

	single, err := Parse(singularPayload)
	require.NoError(t, err)
	multi, err := Parse(listPayload)
	require.NoError(t, err)

	// the overlapping records must come out identical
	diff := cmp.Diff(single.Sections[0], multi.Sections[0])
	require.Empty(t, diff)
	diff = cmp.Diff(single.Meetings[0], multi.Meetings[0])
	require.Empty(t, diff)

	require.Len(t, multi.Sections, 2)
	require.Len(t, multi.Meetings, 2)
}

func TestParseDanglingTimeblockReference(t *testing.T) {
	payload := `
<addcourse>
  <classdata>
    <course code="MATH" number="1ZA3">
      <uselection>
        <selection key="s1">
          <block type="LEC" secNo="C01" timeblockids="1,99"/>
          <block type="TUT" secNo="T01" timeblockids="2"/>
        </selection>
        <timeblock id="1" day="3" t1="540" t2="590"/>
        <timeblock id="2" day="5" t1="540" t2="590"/>
      </uselection>
    </course>
  </classdata>
</addcourse>`

	data, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, data)

	// the dangling id 99 drops one meeting, the section and its
	// sibling meetings survive
	require.Len(t, data.Sections, 2)
	require.Equal(t, []Meeting{
		{Component: "LEC", SectionCode: "C01", Day: 3, StartMinutes: 540, EndMinutes: 590},
		{Component: "TUT", SectionCode: "T01", Day: 5, StartMinutes: 540, EndMinutes: 590},
	}, data.Meetings)
}

// timeblock references only resolve within their own selection group
func TestParseCrossGroupReferenceNotMatched(t *testing.T) {
	payload := `
<addcourse>
  <classdata>
    <course code="PHYS" number="1D03">
      <uselection>
        <selection key="s1">
          <block type="LEC" secNo="C01" timeblockids="1"/>
        </selection>
        <timeblock id="1" day="2" t1="600" t2="650"/>
      </uselection>
      <uselection>
        <selection key="s2">
          <block type="LAB" secNo="L01" timeblockids="1,7"/>
        </selection>
        <timeblock id="7" day="6" t1="900" t2="1070"/>
      </uselection>
    </course>
  </classdata>
</addcourse>`

	data, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, data)

	require.Len(t, data.Sections, 2)
	// the LAB block's reference to id 1 must not leak into the first
	// group's index
	require.Equal(t, []Meeting{
		{Component: "LEC", SectionCode: "C01", Day: 2, StartMinutes: 600, EndMinutes: 650},
		{Component: "LAB", SectionCode: "L01", Day: 6, StartMinutes: 900, EndMinutes: 1070},
	}, data.Meetings)
}

func TestParseDelivery(t *testing.T) {
	payload := `
<addcourse>
  <classdata>
    <course code="ART" number="1AA3">
      <uselection>
        <selection key="s1">
          <block type="LEC" secNo="C01" im="P" timeblockids=""/>
          <block type="LEC" secNo="C02" im="VIRTUAL" timeblockids=""/>
          <block type="LEC" secNo="C03" timeblockids=""/>
        </selection>
      </uselection>
    </course>
  </classdata>
</addcourse>`

	data, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, data)

	require.Equal(t, "in person", data.Sections[0].Delivery)
	require.Equal(t, "VIRTUAL", data.Sections[1].Delivery)
	require.Equal(t, "", data.Sections[2].Delivery)
	require.Empty(t, data.Meetings)
}

func TestParseNothingUseful(t *testing.T) {
	// no course node at all
	data, err := Parse(`<addcourse><classdata><errors><error>not found</error></errors></classdata></addcourse>`)
	require.NoError(t, err)
	require.Nil(t, data)

	// course node missing its natural key
	data, err = Parse(`<addcourse><classdata><course title="mystery"/></classdata></addcourse>`)
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestParseMalformedXml(t *testing.T) {
	_, err := Parse(`<addcourse><classdata>`)
	require.Error(t, err)
}

func TestParseClassNumberPreserved(t *testing.T) {
	payload := `
<addcourse>
  <classdata>
    <course code="CHEM" number="1E03">
      <uselection>
        <selection key="s1">
          <block type="LEC" secNo="C01" cn="4417" timeblockids=""/>
        </selection>
      </uselection>
    </course>
  </classdata>
</addcourse>`

	data, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, data)
	require.Equal(t, "4417", data.Sections[0].ClassNumber)
}
