package tree

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/wellcheck/internal/domain/classifier"
	"github.com/okian/wellcheck/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func row(anxiety, stress, cgpa float64) model.FeatureRow {
	return model.FeatureRow{Values: [model.FeatureCount]float64{20, 1, 0, 0, 2, cgpa, anxiety, stress, 1}}
}

func fixture() string {
	data, err := os.ReadFile(filepath.Join("testdata", "stress_tree.yaml"))
	if err != nil {
		panic(err)
	}
	return string(data)
}

func TestLoad(t *testing.T) {
	Convey("Given the fixture artifact", t, func() {
		tr, err := Load(filepath.Join("testdata", "stress_tree.yaml"))

		Convey("Then it loads and describes itself", func() {
			So(err, ShouldBeNil)
			info := tr.Describe()
			So(info.Backend, ShouldEqual, "tree")
			So(info.Classes, ShouldResemble, []int{0, 1, 2})
			So(info.FeatureNames, ShouldResemble, model.FeatureNames())
			So(info.Encoding, ShouldEqual, model.EncodingOrdinal)
			So(info.Source, ShouldEndWith, "stress_tree.yaml")
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

		Convey("Then it is reported as unavailable", func() {
			So(errors.Is(err, classifier.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given the artifact as JSON", t, func() {
		doc := `{"model_type":"DecisionTreeClassifier","questionnaire_encoding":"ordinal",
"feature_names":["Age","Gender","University","Department","Academic Year","Current CGPA","Anxiety Value","Stress Value","Depression Value"],
"classes":[0,1,2],"nodes":[{"left":-1,"right":-1,"value":[0,0,1]}]}`
		tr, err := Parse([]byte(doc))

		Convey("Then it parses the same way", func() {
			So(err, ShouldBeNil)
			class, err := tr.Predict(context.Background(), row(0, 0, 9))
			So(err, ShouldBeNil)
			So(class, ShouldEqual, 2)
		})
	})
}

func TestParseValidation(t *testing.T) {
	Convey("Given broken artifacts", t, func() {
		base := fixture()
		cases := []struct {
			name string
			doc  string
			kind error
		}{
			{"renamed feature", strings.Replace(base, "Stress Value", "Stress Score", 1), classifier.ErrShapeMismatch},
			{"wrong classes", strings.Replace(base, "classes: [0, 1, 2]", "classes: [1, 2, 3]", 1), classifier.ErrInvalidArtifact},
			{"raw encoding", strings.Replace(base, "questionnaire_encoding: ordinal", "questionnaire_encoding: raw", 1), classifier.ErrInvalidArtifact},
			{"backward child", strings.Replace(base, "{left: 5, right: 6", "{left: 0, right: 6", 1), classifier.ErrInvalidArtifact},
			{"child overflow", strings.Replace(base, "{left: 5, right: 6", "{left: 5, right: 60", 1), classifier.ErrInvalidArtifact},
			{"bad feature", strings.Replace(base, "feature: 5,", "feature: 9,", 1), classifier.ErrInvalidArtifact},
			{"short leaf", strings.Replace(base, "value: [40, 5, 1]", "value: [40, 5]", 1), classifier.ErrInvalidArtifact},
			{"unknown field", base + "\nextra: true\n", classifier.ErrInvalidArtifact},
			{"not yaml at all", "nodes: [", classifier.ErrInvalidArtifact},
			{"empty node list", strings.Split(base, "nodes:")[0] + "nodes: []\n", classifier.ErrInvalidArtifact},
		}

		for _, c := range cases {
			Convey("When the artifact has a "+c.name, func() {
				_, err := Parse([]byte(c.doc))
				So(err, ShouldNotBeNil)
				So(errors.Is(err, c.kind), ShouldBeTrue)
			})
		}
	})

	Convey("Given a raw-encoded artifact and a raw deployment", t, func() {
		doc := strings.Replace(fixture(), "questionnaire_encoding: ordinal", "questionnaire_encoding: raw", 1)
		_, err := Parse([]byte(doc), WithExpectedEncoding(model.EncodingRaw))

		Convey("Then it is accepted", func() {
			So(err, ShouldBeNil)
		})
	})
}

func TestPredict(t *testing.T) {
	Convey("Given the fixture tree", t, func() {
		tr, err := Parse([]byte(fixture()))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("Then rows follow the splits", func() {
			cases := []struct {
				anxiety, stress, cgpa float64
				want                  int
			}{
				{1, 1, 7.5, 0},
				{1.5, 1.5, 7.5, 0}, // thresholds are inclusive on the left
				{2, 1, 7.5, 1},
				{0, 3, 5.0, 2},
				{0, 3, 5.25, 2},
				{0, 3, 8.0, 1}, // tied leaf resolves to the first maximum
			}
			for _, c := range cases {
				got, err := tr.Predict(ctx, row(c.anxiety, c.stress, c.cgpa))
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c.want)
			}
		})

		Convey("Then non-finite values are rejected as malformed", func() {
			_, err := tr.Predict(ctx, row(math.NaN(), 1, 7))
			So(errors.Is(err, classifier.ErrShapeMismatch), ShouldBeTrue)
			_, err = tr.Predict(ctx, row(1, math.Inf(1), 7))
			So(errors.Is(err, classifier.ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("Then repeated predictions are stable", func() {
			a, _ := tr.Predict(ctx, row(2, 1, 7.5))
			b, _ := tr.Predict(ctx, row(2, 1, 7.5))
			So(a, ShouldEqual, b)
		})
	})
}
