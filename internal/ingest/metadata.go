package ingest

import (
	"encoding/json"
	"fmt"
	"os"
)

// DocumentMeta describes one curated regulation source.
type DocumentMeta struct {
	SourceURL string `json:"source_url"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Keywords  string `json:"keywords"`
}

// LoadMetadata reads a metadata file: either a bare JSON array of documents
// or an object with a "documents" key.
func LoadMetadata(path string) ([]DocumentMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata file: %w", err)
	}

	var docs []DocumentMeta
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}

	var wrapper struct {
		Documents []DocumentMeta `json:"documents"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parsing metadata file %q: %w", path, err)
	}
	return wrapper.Documents, nil
}

// DefaultMetadata is the curated set of university regulation sources used
// when no metadata file is given.
var DefaultMetadata = []DocumentMeta{
	{
		SourceURL: "https://www.bilgi.edu.tr/upload/credit-system-bachelors-degree-and-associate-degree-education-and-examination-regulation/",
		Title:     "Credit System Undergraduate and Two-Year Program Education and Examination Regulation",
		Summary:   "Comprehensive regulation governing undergraduate and associate degree education at Istanbul Bilgi University, covering admission, registration, course credits, examinations, grading, graduation requirements, and academic standing.",
		Keywords:  "undergraduate, associate degree, credit system, examination, registration, tuition, grading, GPA, graduation, academic standing, courses, diploma",
	},
	{
		SourceURL: "https://www.bilgi.edu.tr/media/uploads/2024/03/26/regulation-on-double-major-minor-and-honors-programs.pdf",
		Title:     "Regulation on Double Major, Minor and Honors Programs",
		Summary:   "Regulation defining requirements and procedures for double major, minor, and honors programs including application conditions, credit loads, academic standing requirements, and graduation criteria.",
		Keywords:  "double major, minor program, honors program, secondary major, GPA requirements, graduation, credit load, capstone thesis",
	},
	{
		SourceURL: "https://www.bilgi.edu.tr/media/uploads/2018/08/08/academic-advisor-directive.pdf",
		Title:     "Academic Advisor Directive",
		Summary:   "Directive defining academic advising responsibilities for instructors and student obligations during the advising process, including advisor assignment procedures and course registration guidance.",
		Keywords:  "academic advisor, course selection, student guidance, registration, advisor responsibilities, student responsibilities",
	},
	{
		SourceURL: "https://www.bilgi.edu.tr/media/uploads/2022/03/09/financialproceduresandprinciplesforstudentsundergraduateandassociatedegree.pdf",
		Title:     "Financial Procedures and Principles for Students (Undergraduate and Associate Degree)",
		Summary:   "Financial regulations covering tuition fees, enrollment suspension and cancellation procedures, refund policies, and payment obligations for undergraduate and associate degree students.",
		Keywords:  "tuition fee, enrollment suspension, enrollment cancellation, refund, payment, financial procedures, scholarship, late enrollment",
	},
	{
		SourceURL: "https://www.bilgi.edu.tr/media/uploads/2024/11/26/graduate-education-and-training-regulations.docx",
		Title:     "Graduate Education and Training Regulations",
		Summary:   "Comprehensive regulation governing master's and doctoral programs including admission, course requirements, thesis/project procedures, examinations, and graduation requirements.",
		Keywords:  "graduate education, masters degree, doctoral program, thesis, dissertation, graduate courses, PhD, academic requirements",
	},
	{
		SourceURL: "https://www.bilgi.edu.tr/media/uploads/2022/03/09/financialproceduresandprinciplesforstudentsgraduatedegree.pdf",
		Title:     "Financial Procedures and Principles for Students (Graduate Degree)",
		Summary:   "Financial regulations covering tuition fees, enrollment suspension and cancellation procedures, refund policies, and payment obligations specifically for graduate degree students.",
		Keywords:  "graduate tuition, enrollment suspension, enrollment cancellation, refund, payment, financial procedures, graduate scholarship",
	},
}
