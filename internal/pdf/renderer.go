// Package pdf renders the joining form summary document generated after a
// successful submission.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/clumsypasta/abans-form/internal/models"
)

const (
	placeholderValue   = "Not specified"
	placeholderEntries = "No entries"

	pageWidth    = 210.0
	marginX      = 12.0
	marginTop    = 14.0
	marginBottom = 16.0
	contentWidth = pageWidth - 2*marginX
	labelWidth   = 58.0
)

// Renderer produces the fixed-layout A4 summary. Section order is stable
// regardless of how the form was filled in.
type Renderer struct {
	companyName string
}

// NewRenderer constructs a Renderer. An empty company name falls back to the
// group letterhead.
func NewRenderer(companyName string) *Renderer {
	if companyName == "" {
		companyName = "ABANS Group"
	}
	return &Renderer{companyName: companyName}
}

// Filename derives the stored document name from the applicant's name and
// the render timestamp.
func Filename(sub *models.Submission, now time.Time) string {
	slug := nameSlug(sub.FullName())
	return fmt.Sprintf("joining-form-%s-%d.pdf", slug, now.Unix())
}

// Render builds the summary PDF for a finalized submission.
func (r *Renderer) Render(sub *models.Submission) ([]byte, error) {
	if sub == nil {
		return nil, fmt.Errorf("submission is nil")
	}

	d := newDoc()
	d.header(r.companyName, formNumber(sub.ID))

	d.sectionTitle("Personal Details")
	d.kv("Full Name", sub.FullName())
	d.kv("Employee Code", sub.EmployeeCode)
	d.kv("Father's / Husband's Name", sub.FatherHusbandName)
	d.kv("Department", sub.Department)
	d.kv("Company", sub.CompanyName)
	d.kv("Date of Joining", deref(sub.DateOfJoining))
	d.kv("Place / Location", sub.PlaceLocation)
	d.kv("Date of Birth", deref(sub.DateOfBirth))
	d.kv("Present Address", sub.PresentAddress)
	d.kv("Permanent Address", sub.PermanentAddress)
	d.kv("Phone (Residence)", sub.PhoneResidence)
	d.kv("Phone (Mobile)", sub.PhoneMobile)
	d.kv("Marital Status", sub.MaritalStatus)
	d.kv("Nationality", sub.Nationality)
	d.kv("Blood Group", sub.BloodGroup)
	d.kv("Personal Email", sub.PersonalEmail)
	d.kv("UAN", sub.UAN)
	d.kv("Last PF No", sub.LastPFNo)

	d.sectionTitle("Emergency Contact")
	d.kv("Name", sub.EmergencyContactName)
	d.kv("Address", sub.EmergencyContactAddress)
	d.kv("Relationship", sub.EmergencyContactRelationship)
	d.kv("Phone", sub.EmergencyContactPhone)

	d.sectionTitle("Nominee Details")
	d.kv("Name", sub.NomineeName)
	d.kv("Date of Birth", deref(sub.NomineeDOB))
	d.kv("Mobile", sub.NomineeMobile)
	d.kv("Relationship", sub.NomineeRelationship)

	d.sectionTitle("Languages Known")
	languageRows := make([][]string, 0, len(sub.LanguagesKnown))
	for _, l := range sub.LanguagesKnown {
		if strings.TrimSpace(l.Language) == "" {
			continue
		}
		languageRows = append(languageRows, []string{l.Language, yesNo(l.Read), yesNo(l.Write), yesNo(l.Speak)})
	}
	d.table([]string{"Language", "Read", "Write", "Speak"}, []float64{66, 40, 40, 40}, languageRows)

	d.sectionTitle("Family Details")
	dependantRows := make([][]string, 0, len(sub.FamilyDependants))
	for _, f := range sub.FamilyDependants {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		dependantRows = append(dependantRows, []string{f.Name, f.Relationship, f.Mobile, f.Occupation})
	}
	d.table([]string{"Name", "Relationship", "Mobile", "Occupation"}, []float64{56, 44, 40, 46}, dependantRows)

	d.sectionTitle("Academic Qualifications")
	academicRows := make([][]string, 0, len(sub.AcademicQualifications))
	for _, a := range sub.AcademicQualifications {
		if strings.TrimSpace(a.Degree) == "" {
			continue
		}
		academicRows = append(academicRows, []string{a.Degree, a.University, a.PassingYear, a.Percentage})
	}
	d.table([]string{"Degree", "University / Board", "Year", "Percentage"}, []float64{52, 72, 28, 34}, academicRows)

	d.sectionTitle("Professional Qualifications")
	professionalRows := make([][]string, 0, len(sub.ProfessionalQualifications))
	for _, p := range sub.ProfessionalQualifications {
		if strings.TrimSpace(p.Certification) == "" {
			continue
		}
		professionalRows = append(professionalRows, []string{p.Certification, p.Institute, p.Year, p.Percentage})
	}
	d.table([]string{"Certification", "Institute", "Year", "Percentage"}, []float64{52, 72, 28, 34}, professionalRows)

	d.sectionTitle("Work Experience")
	if sub.IsFresher {
		d.plainLine("Fresher - no prior work experience")
	} else {
		experienceRows := make([][]string, 0, len(sub.WorkExperienceEntries))
		for _, w := range sub.WorkExperienceEntries {
			if strings.TrimSpace(w.Organization) == "" {
				continue
			}
			experienceRows = append(experienceRows, []string{w.Organization, w.Type, w.Duration, w.Designation})
		}
		d.table([]string{"Organization", "Type", "Duration", "Designation"}, []float64{62, 34, 38, 52}, experienceRows)
	}

	d.sectionTitle("References")
	refCount := 0
	for i, ref := range sub.References {
		if strings.TrimSpace(ref.Name) == "" {
			continue
		}
		refCount++
		d.subHeading(fmt.Sprintf("Reference %d", i+1))
		d.kv("Name", ref.Name)
		d.kv("Designation", ref.Designation)
		d.kv("Company", ref.Company)
		d.kv("Address", ref.Address)
		d.kv("Contact No", ref.ContactNo)
		d.kv("Email", ref.Email)
	}
	if refCount == 0 {
		d.plainLine(placeholderEntries)
	}

	d.sectionTitle("Declaration")
	if sub.AgreementAccepted {
		d.plainLine("I hereby declare that the information furnished above is true and correct to the best of my knowledge.")
		d.kv("Agreement Accepted", "Yes")
	} else {
		d.kv("Agreement Accepted", "No")
	}
	d.kv("Submitted On", sub.CreatedAt.Format("02 Jan 2006 15:04 MST"))

	buf := &bytes.Buffer{}
	if err := d.pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render joining form pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// doc wraps gofpdf with the layout bookkeeping the summary needs: a section
// heading is never orphaned at the bottom of a page.
type doc struct {
	pdf *gofpdf.Fpdf
}

func newDoc() *doc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, marginTop, marginX)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return &doc{pdf: pdf}
}

func (d *doc) header(companyName, formNo string) {
	d.pdf.SetFont("Arial", "B", 16)
	d.pdf.CellFormat(0, 9, companyName, "", 1, "C", false, 0, "")
	d.pdf.SetFont("Arial", "", 12)
	d.pdf.CellFormat(0, 7, "Employee Joining Form", "", 1, "C", false, 0, "")
	d.pdf.SetFont("Arial", "", 9)
	d.pdf.CellFormat(0, 6, formNo, "", 1, "R", false, 0, "")
	d.pdf.Ln(2)
}

// ensureRoom breaks the page early when fewer than h millimetres remain, so
// the next heading or row starts on a fresh page instead of straddling one.
func (d *doc) ensureRoom(h float64) {
	_, pageH := d.pdf.GetPageSize()
	if d.pdf.GetY()+h > pageH-marginBottom {
		d.pdf.AddPage()
	}
}

func (d *doc) sectionTitle(title string) {
	// Keep the heading together with at least one row beneath it.
	d.ensureRoom(20)
	d.pdf.Ln(3)
	d.pdf.SetFont("Arial", "B", 11)
	d.pdf.SetFillColor(235, 235, 235)
	d.pdf.CellFormat(contentWidth, 8, title, "1", 1, "L", true, 0, "")
}

func (d *doc) subHeading(title string) {
	d.ensureRoom(14)
	d.pdf.Ln(1)
	d.pdf.SetFont("Arial", "B", 9)
	d.pdf.CellFormat(contentWidth, 6, title, "", 1, "L", false, 0, "")
}

func (d *doc) kv(label, value string) {
	d.ensureRoom(7)
	d.pdf.SetFont("Arial", "B", 9)
	d.pdf.CellFormat(labelWidth, 6, label, "", 0, "L", false, 0, "")
	d.pdf.SetFont("Arial", "", 9)
	d.pdf.MultiCell(contentWidth-labelWidth, 6, orPlaceholder(value), "", "L", false)
}

func (d *doc) plainLine(text string) {
	d.ensureRoom(7)
	d.pdf.SetFont("Arial", "", 9)
	d.pdf.MultiCell(contentWidth, 6, text, "", "L", false)
}

func (d *doc) table(headers []string, widths []float64, rows [][]string) {
	if len(rows) == 0 {
		d.plainLine(placeholderEntries)
		return
	}
	d.ensureRoom(8 + 7)
	d.pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		d.pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	d.pdf.Ln(-1)
	d.pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		d.ensureRoom(7)
		for i, cell := range row {
			d.pdf.CellFormat(widths[i], 7, orPlaceholder(cell), "1", 0, "L", false, 0, "")
		}
		d.pdf.Ln(-1)
	}
}

func formNumber(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return "Form No: JFF-" + strings.ToUpper(short)
}

func orPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return placeholderValue
	}
	return v
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nameSlug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "applicant"
	}
	var b strings.Builder
	lastDash := false
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
