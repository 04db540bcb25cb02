package feature

import (
	"github.com/mkedata/crosswalk/internal/frame"
	"github.com/mkedata/crosswalk/internal/model"
	"github.com/mkedata/crosswalk/internal/service"
)

// catalog returns the built-in feature descriptors. Each entry is data
// consumed by one of the generic compute routines; adding a feature means
// adding a descriptor here, not a new type.
func catalog() []service.Feature {
	features := []service.Feature{
		NewEligibility(),

		// Demographic presence and attendance aggregates.
		&AggregateDescriptor{
			MetaData: model.FeatureMeta{
				ID: 10, Column: "num_demo_records", Type: model.FeatureNumerical,
				Description: "number of demographic observations for the student within the frame",
			},
			SourceTable: "demographic", ValueColumn: "student_key", Aggregate: "count",
			YearColumn: "year", Fill: FillZero,
		},
		&AggregateDescriptor{
			MetaData: model.FeatureMeta{
				ID: 11, Column: "avg_att_days_per_year", Type: model.FeatureNumerical,
				Description: "average attendance days per observed year within the frame",
			},
			SourceTable: "demographic", ValueColumn: "att_days", Aggregate: "avg",
			YearColumn: "year", Fill: FillMean,
		},
		&AggregateDescriptor{
			MetaData: model.FeatureMeta{
				ID: 12, Column: "avg_abs_days_per_year", Type: model.FeatureNumerical,
				Description: "average absence days per observed year within the frame",
			},
			SourceTable: "demographic", ValueColumn: "abs_days", Aggregate: "avg",
			YearColumn: "year", Fill: FillMean,
		},
		&AggregateDescriptor{
			MetaData: model.FeatureMeta{
				ID: 13, Column: "avg_membership_days_per_year", Type: model.FeatureNumerical,
				Description: "average enrolled (membership) days per observed year within the frame",
			},
			SourceTable: "demographic", ValueColumn: "membership_days", Aggregate: "avg",
			YearColumn: "year", Fill: FillMean,
		},
		&AggregateDescriptor{
			MetaData: model.FeatureMeta{
				ID: 14, Column: "att_days_last_year", Type: model.FeatureNumerical,
				Description: "attendance days in the final year of the frame window",
			},
			SourceTable: "demographic", ValueColumn: "att_days", Aggregate: "sum",
			YearColumn: "year", Window: WindowLastN, NYears: 1, Fill: FillZero,
		},
		&AggregateDescriptor{
			MetaData: model.FeatureMeta{
				ID: 15, Column: "birth_month", Type: model.FeatureNumerical,
				Description: "student birth month; 0 when unknown",
			},
			SourceTable: "demographic", ValueColumn: "birth_month", Aggregate: "max",
			YearColumn: "year", Fill: FillZero,
		},
		&AggregateDescriptor{
			MetaData: model.FeatureMeta{
				ID: 16, Column: "student_gender", Type: model.FeatureCategorical,
				Description: "student gender as recorded in the demographic file",
			},
			SourceTable: "demographic", ValueColumn: "gender", Aggregate: "max",
			YearColumn: "year", Fill: FillDefault, Default: frame.Text("unknown"),
		},
		&AggregateDescriptor{
			MetaData: model.FeatureMeta{
				ID: 17, Column: "student_race", Type: model.FeatureCategorical,
				Description: "student race as recorded in the demographic file",
			},
			SourceTable: "demographic", ValueColumn: "race", Aggregate: "max",
			YearColumn: "year", Fill: FillDefault, Default: frame.Text("unknown"),
		},

		// Discipline features.
		&DisciplineDescriptor{
			MetaData: model.FeatureMeta{
				ID: 20, Column: "num_discipline_days", Type: model.FeatureNumerical,
				Description: "total discipline days within the frame",
			},
			ValueColumn: "discipline_days", Aggregate: "sum", Fill: FillZero,
		},
		&DisciplineDescriptor{
			MetaData: model.FeatureMeta{
				ID: 21, Column: "num_discipline_days_last_3_years", Type: model.FeatureNumerical,
				Description: "discipline days in the last three years of the frame window",
			},
			ValueColumn: "discipline_days", Aggregate: "sum",
			Window: WindowLastN, NYears: 3, Fill: FillZero,
		},
		&DisciplineDescriptor{
			MetaData: model.FeatureMeta{
				ID: 22, Column: "total_num_of_incidents", Type: model.FeatureNumerical,
				Description: "total discipline incidents within the frame",
			},
			ValueColumn: "student_key", Aggregate: "count", Fill: FillZero,
		},
		&DisciplineDescriptor{
			MetaData: model.FeatureMeta{
				ID: 23, Column: "num_of_incidents_weapons_related", Type: model.FeatureNumerical,
				Description: "weapons-related discipline incidents within the frame",
			},
			ValueColumn: "student_key", Aggregate: "count",
			OffenseGroups: []string{"weapons"}, Fill: FillZero,
		},
		&DisciplineDescriptor{
			MetaData: model.FeatureMeta{
				ID: 24, Column: "num_of_incidents_physical_safety", Type: model.FeatureNumerical,
				Description: "physical-safety discipline incidents within the frame",
			},
			ValueColumn: "student_key", Aggregate: "count",
			OffenseGroups: []string{"assault", "fighting", "physical_safety"}, Fill: FillZero,
		},
		&DisciplineDescriptor{
			MetaData: model.FeatureMeta{
				ID: 25, Column: "has_drug_related_discipline", Type: model.FeatureBoolean,
				Description: "whether the student has any drug-related discipline incident within the frame",
			},
			ValueColumn: "student_key", Aggregate: "count",
			OffenseGroups: []string{"drugs", "alcohol"}, AsBoolean: true,
		},

		// Assessment trajectory features.
		&SlopeDescriptor{
			MetaData: model.FeatureMeta{
				ID: 30, Column: "math_map_score_slope", Type: model.FeatureCategorical,
				Description: "change from first to last MAP math score within the frame, binned",
			},
			TestSubject: "math", TestType: "MAP",
			Bins:         []float64{-10, 0, 10},
			Labels:       []string{"large_drop", "drop", "gain", "large_gain"},
			DefaultLabel: "no_tests",
		},
		&SlopeDescriptor{
			MetaData: model.FeatureMeta{
				ID: 31, Column: "reading_map_score_slope", Type: model.FeatureCategorical,
				Description: "change from first to last MAP reading score within the frame, binned",
			},
			TestSubject: "reading", TestType: "MAP",
			Bins:         []float64{-10, 0, 10},
			Labels:       []string{"large_drop", "drop", "gain", "large_gain"},
			DefaultLabel: "no_tests",
		},

		// Program-membership flags.
		programFlag(40, "is_student_homeless", "homeless", "whether the student was ever recorded homeless within the frame"),
		programFlag(41, "is_esl", "esl", "whether the student was ever in an ESL program within the frame"),
		programFlag(42, "is_headstart", "headstart", "whether the student was ever in Head Start within the frame"),
		programFlag(43, "is_student_sp_ed", "sp_ed", "whether the student was ever in special education within the frame"),
		programFlag(44, "is_schoolage_parent", "schoolage_parent", "whether the student was ever in the school-age-parent program within the frame"),
		programFlag(45, "is_student_atrisk", "atrisk", "whether the student was ever flagged at-risk within the frame"),
	}
	return features
}

// programFlag builds a program-membership descriptor.
func programFlag(id int, column, code, description string) *ProgramDescriptor {
	return &ProgramDescriptor{
		MetaData: model.FeatureMeta{
			ID: id, Column: column, Type: model.FeatureBoolean,
			Description: description,
		},
		ProgramCode: code,
	}
}
