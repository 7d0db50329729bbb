package rules

import (
	"strings"
	"testing"

	"github.com/apertium-contrib/twlearn/internal/test"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<transfer default-cat="default">
  <section-def-cats>
    <def-cat n="det_nom">
      <cat-item tags="det.*"/>
    </def-cat>
    <def-cat n="n">
      <cat-item tags="n.*"/>
    </def-cat>
  </section-def-cats>
  <section-rules>
    <rule id="1" comment="det + noun, default order">
      <pattern>
        <pattern-item n="det_nom"/>
        <pattern-item n="n"/>
      </pattern>
    </rule>
    <rule id="2" comment="det + noun, exception order">
      <pattern>
        <pattern-item n="det_nom"/>
        <pattern-item n="n"/>
      </pattern>
    </rule>
    <rule id="3" comment="bare noun">
      <pattern>
        <pattern-item n="n"/>
      </pattern>
    </rule>
  </section-rules>
</transfer>`

func TestLoadGroupsAmbiguousRules(t *testing.T) {
	doc, err := Load([]byte(sampleDoc))
	test.Assert(t, err == nil, "unexpected error: %v", err)
	test.ExpectInt(t, 3, len(doc.Rules))
	test.ExpectInt(t, 2, len(doc.Groups))

	ambiguous := doc.AmbiguousGroups()
	test.ExpectInt(t, 1, len(ambiguous))
	group, ok := ambiguous[0]
	test.ExpectBool(t, true, ok)
	test.ExpectInt(t, 2, len(group.Rules))
	test.ExpectBool(t, true, group.Ambiguous())

	singleton := doc.GroupByDefaultIndex()[2]
	test.Assert(t, singleton != nil, "expected a group for rule 2's singleton pattern")
	test.ExpectBool(t, false, singleton.Ambiguous())
}

// TestMD5StableUnderWhitespace exercises invariant 7: MD5 is computed over the
// whitespace-stripped serialization, so re-indenting a rule does not change it.
func TestMD5StableUnderWhitespace(t *testing.T) {
	spaced := strings.ReplaceAll(sampleDoc, "<pattern>", "<pattern>\n      ")
	doc1, err := Load([]byte(sampleDoc))
	test.Assert(t, err == nil, "unexpected error: %v", err)
	doc2, err := Load([]byte(spaced))
	test.Assert(t, err == nil, "unexpected error: %v", err)

	test.Expect(t, doc1.Rules[0].MD5 == doc2.Rules[0].MD5, doc1.Rules[0].MD5, doc2.Rules[0].MD5)
}

func TestRuleAttrs(t *testing.T) {
	doc, err := Load([]byte(sampleDoc))
	test.Assert(t, err == nil, "unexpected error: %v", err)

	attrs := doc.Rules[0].Attrs()
	test.Expect(t, attrs["id"] == "1", "1", attrs["id"])
	test.Expect(t, attrs["comment"] == "det + noun, default order", "det + noun, default order", attrs["comment"])
}

func TestLoadMissingSection(t *testing.T) {
	_, err := Load([]byte(`<transfer><section-def-cats/></transfer>`))
	test.ExpectErrorCode(t, MissingSectionError, err)
}

func TestLoadMissingPatternItemAttribute(t *testing.T) {
	bad := `<transfer>
  <section-def-cats><def-cat n="n"><cat-item tags="n"/></def-cat></section-def-cats>
  <section-rules><rule id="1"><pattern><pattern-item/></pattern></rule></section-rules>
</transfer>`
	_, err := Load([]byte(bad))
	test.ExpectErrorCode(t, MissingAttributeError, err)
}

func TestPatternSignature(t *testing.T) {
	sig := PatternSignature([]string{"det_nom", "n", "n"})
	test.Expect(t, sig == "det_nom.n.n", "det_nom.n.n", sig)
}
