package core_test

import (
	"testing"

	core "causality/core"
)

func baseRelationship() core.CrossDomainRelationship {
	return core.CrossDomainRelationship{
		SourceResource: "res1",
		SourceDomain:   core.LocalLocation(),
		TargetResource: "res2",
		TargetDomain:   core.RemoteLocation(core.EntityIdFromBytes([]byte{9})),
		Type:           core.RelMirror,
		Metadata: core.RelationshipMetadata{
			RequiresSync: true,
			SyncStrategy: core.PeriodicSync(1000),
		},
	}
}

func TestValidatorMirrorRequiresSyncStrict(t *testing.T) {
	v := core.NewRelationshipValidator(core.LevelStrict)
	rel := baseRelationship()
	rel.Metadata.RequiresSync = false

	result := v.Validate(rel)
	if result.IsValid {
		t.Fatalf("expected Mirror without requires_sync to fail at Strict")
	}
}

func TestValidatorMirrorRequiresSyncModerateWarnsOnly(t *testing.T) {
	v := core.NewRelationshipValidator(core.LevelModerate)
	rel := baseRelationship()
	rel.Metadata.RequiresSync = false

	result := v.Validate(rel)
	if !result.IsValid {
		t.Fatalf("expected Moderate level to warn, not fail: %+v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Fatalf("expected a warning about requires_sync")
	}
}

func TestValidatorSameDomainErrorsAtStrict(t *testing.T) {
	v := core.NewRelationshipValidator(core.LevelStrict)
	rel := baseRelationship()
	rel.TargetDomain = rel.SourceDomain

	result := v.Validate(rel)
	if result.IsValid {
		t.Fatalf("expected same-domain relationship to fail at Strict")
	}
}

func TestValidatorPeriodicSyncZeroInterval(t *testing.T) {
	v := core.NewRelationshipValidator(core.LevelPermissive)
	rel := baseRelationship()
	rel.Metadata.SyncStrategy = core.PeriodicSync(0)

	result := v.Validate(rel)
	if result.IsValid {
		t.Fatalf("expected zero-interval Periodic sync to error even at Permissive")
	}
}

func TestValidatorCustomRequiresName(t *testing.T) {
	v := core.NewRelationshipValidator(core.LevelPermissive)
	rel := baseRelationship()
	rel.Type = core.RelCustom
	rel.CustomName = ""

	result := v.Validate(rel)
	if result.IsValid {
		t.Fatalf("expected Custom relationship without a name to error")
	}
}

func TestValidatorEmptyResourceAlwaysErrors(t *testing.T) {
	v := core.NewRelationshipValidator(core.LevelPermissive)
	rel := baseRelationship()
	rel.SourceResource = ""

	result := v.Validate(rel)
	if result.IsValid {
		t.Fatalf("expected empty source_resource to error at every level")
	}
}

func TestValidatorRegisterRuleRuntime(t *testing.T) {
	v := core.NewRelationshipValidator(core.LevelPermissive)
	v.RegisterRule(core.ScopeByType(core.RelReference), core.Rule{
		MinLevel: core.LevelPermissive,
		Check: func(rel core.CrossDomainRelationship, level core.ValidationLevel, result *core.ValidationResult) {
			if rel.SourceResource == "forbidden" {
				result.IsValid = false
			}
		},
	})

	rel := baseRelationship()
	rel.Type = core.RelReference
	rel.SourceResource = "forbidden"

	result := v.Validate(rel)
	if result.IsValid {
		t.Fatalf("expected runtime-registered rule to reject the relationship")
	}
}
